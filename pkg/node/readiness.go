package node

import (
	"time"

	"github.com/pkg/errors"
)

// waitForCondition polls fn at the given interval until it reports true, fn
// returns an error, or the timeout elapses.
func waitForCondition(timeout, interval time.Duration, fn func() (bool, error)) error {
	deadline := time.Now().Add(timeout)

	for {
		ok, err := fn()
		if err != nil {
			return err
		}

		if ok {
			return nil
		}

		if time.Now().After(deadline) {
			return errors.Errorf("condition not met within %s", timeout)
		}

		time.Sleep(interval)
	}
}
