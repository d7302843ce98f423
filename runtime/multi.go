// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package runtime

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Runner is satisfied by every [Runtime].
type Runner interface {
	Run(context.Context) error
}

// Multi runs every runner concurrently. The first failure cancels the others.
func Multi(rs ...Runner) Runner {
	return multi(rs)
}

type multi []Runner

func (m multi) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range m {
		r := r
		g.Go(func() error {
			return r.Run(gctx)
		})
	}
	return g.Wait()
}
