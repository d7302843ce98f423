// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package lifecycle

import (
	"context"
	"errors"
	"fmt"
)

func ExampleMultiHook() {
	bind := HookFunc(func(ctx context.Context) error {
		fmt.Println("bind")
		return nil
	})

	ready := HookFunc(func(ctx context.Context) error {
		fmt.Println("mark ready")
		return nil
	})

	mh := MultiHook(bind, ready)

	err := mh.Run(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}

	// Output: bind
	// mark ready
}

func ExampleMultiHook_singleError() {
	bindErr := errors.New("bind failed")
	bind := HookFunc(func(ctx context.Context) error {
		return bindErr
	})

	ready := HookFunc(func(ctx context.Context) error {
		fmt.Println("mark ready")
		return nil
	})

	mh := MultiHook(bind, ready)

	err := mh.Run(context.Background())
	if err == nil {
		fmt.Println("expected error")
		return
	}

	fmt.Println(errors.Is(err, bindErr))

	// Output: mark ready
	// true
}

func ExampleMultiHook_multipleErrors() {
	bindErr := errors.New("bind failed")
	bind := HookFunc(func(ctx context.Context) error {
		return bindErr
	})

	readyErr := errors.New("readiness failed")
	ready := HookFunc(func(ctx context.Context) error {
		return readyErr
	})

	mh := MultiHook(bind, ready)

	err := mh.Run(context.Background())
	if err == nil {
		fmt.Println("expected error")
		return
	}

	fmt.Println(errors.Is(err, bindErr), errors.Is(err, readyErr))

	// Output: true true
}

func ExampleController() {
	var c Controller
	c.OnListen(HookFunc(func(ctx context.Context) error {
		fmt.Println("listening")
		return nil
	}))

	ctx := context.Background()
	err := c.Listen(ctx)
	fmt.Println(err)

	c.Init(ctx)
	c.Listen(ctx)
	fmt.Println(c.State())

	// Output: invalid lifecycle transition from idle to listening
	// listening
	// listening
}
