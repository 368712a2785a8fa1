package tvl

import (
	"fmt"
	"iter"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Job is one asset class partition: a reducer and its sorted stream.
type Job struct {
	Reducer *Reducer
	Entries iter.Seq2[Entry, error]
}

// RunAll reduces every job concurrently and returns the results by class.
//
// Partitions share no state, the only synchronization is the final join. The
// first failing partition error is returned, wrapped with its class.
func RunAll(jobs ...Job) (map[AssetClass]ResultMap, error) {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		results = make(map[AssetClass]ResultMap, len(jobs))
	)
	for _, job := range jobs {
		g.Go(func() error {
			class := job.Reducer.Class()
			log.Printf("start %s", class)
			res, err := job.Reducer.Reduce(job.Entries)
			if err != nil {
				return fmt.Errorf("%s partition: %w", class, err)
			}
			log.Printf("done %s: %d groups", class, res.Len())
			mu.Lock()
			results[class] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
