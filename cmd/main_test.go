package main

import (
	"batepapo/mocks"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSuperviseSweep(t *testing.T) {
	t.Run("should run the sweep until the context ends", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		sup := mocks.NewMockISupervisor(ctrl)
		sweep := mocks.NewMockWorker(ctrl)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		running := make(chan struct{})
		sup.EXPECT().Add(sweep).Return(sup).Times(1)
		sup.EXPECT().Run(gomock.Any()).Do(func(ctx context.Context) {
			close(running)
			<-ctx.Done()
		}).Times(1)

		done := superviseSweep(ctx, sup, sweep)
		<-running
		req.Never(func() bool {
			select {
			case <-done:
				return true
			default:
				return false
			}
		}, 50*time.Millisecond, 10*time.Millisecond)

		cancel()
		req.Eventually(func() bool {
			select {
			case <-done:
				return true
			default:
				return false
			}
		}, time.Second, 10*time.Millisecond)
	})
}
