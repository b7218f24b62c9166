// Three workers draining one pacer. The first slot opens immediately,
// every later one a full delay after the previous, no matter how the
// goroutines race to reserve.
package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/paceline/paceline/pkg/pacing"
)

func main() {
	pacer, err := pacing.New(
		pacing.WithDelay(2*time.Second),
		pacing.WithJitter(0),
	)
	if err != nil {
		panic(fmt.Sprintf("Failed building pacer: %v", err))
	}

	fmt.Println("Three workers share one pacer (delay 2s, no jitter).")
	fmt.Println("Expect waits of roughly 0s, 2s and 4s, in reservation order.")

	start := time.Now()
	var wg sync.WaitGroup
	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			waited, err := pacer.Wait(context.Background())
			if err != nil {
				fmt.Printf("worker %d: wait aborted: %v\n", i, err)
				return
			}
			fmt.Printf("worker %d: waited %v, ran at +%v\n",
				i,
				waited.Round(10*time.Millisecond),
				time.Since(start).Round(10*time.Millisecond),
			)
		}()
	}
	wg.Wait()

	fmt.Printf("All done in %v. Next free slot: %s\n",
		time.Since(start).Round(10*time.Millisecond),
		pacer.NextAt().Format(time.TimeOnly),
	)
}
