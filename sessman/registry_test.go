// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package sessman

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type channelSubscriber struct {
	frames chan Notification
}

func (c *channelSubscriber) Notify(notification Notification) error {
	c.frames <- notification
	return nil
}

type failingSubscriber struct{}

func (failingSubscriber) Notify(Notification) error {
	return errors.New("socket gone")
}

func TestRegistryLastSubscribeWins(t *testing.T) {
	registry := NewRegistry()

	first := &recordingSubscriber{}
	second := &recordingSubscriber{}

	registry.Subscribe("drone-1", "adx", first)
	registry.Subscribe("drone-1", "adx", second)

	registry.Notify("drone-1", "adx", EventPeerAddressChanged)

	require.Empty(t, first.events)
	require.Equal(t, []string{EventPeerAddressChanged}, second.events)
}

func TestRegistryNotifyWithoutSubscriber(t *testing.T) {
	registry := NewRegistry()

	// Must be a silent no-op.
	registry.Notify("drone-1", "ua", EventPeerCredentialsChanged)
}

func TestRegistryUnsubscribe(t *testing.T) {
	registry := NewRegistry()

	subscriber := &recordingSubscriber{}
	registry.Subscribe("drone-1", "ua", subscriber)
	registry.Unsubscribe("drone-1", "ua")
	registry.Unsubscribe("drone-1", "ua") // tolerant of missing

	registry.Notify("drone-1", "ua", EventPeerAddressChanged)
	require.Empty(t, subscriber.events)
}

func TestRegistryKeysAreSegmentScoped(t *testing.T) {
	registry := NewRegistry()

	ua := &recordingSubscriber{}
	adx := &recordingSubscriber{}

	registry.Subscribe("drone-1", "ua", ua)
	registry.Subscribe("drone-1", "adx", adx)

	registry.Notify("drone-1", "adx", EventPeerAddressChanged)

	require.Empty(t, ua.events)
	require.Len(t, adx.events, 1)
}

func TestRegistryDeliveryFailureIsBestEffort(t *testing.T) {
	registry := NewRegistry()
	registry.Subscribe("drone-1", "ua", failingSubscriber{})

	// Must not panic or retry.
	registry.Notify("drone-1", "ua", EventPeerAddressChanged)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	registry := NewRegistry()

	subscriber := &channelSubscriber{frames: make(chan Notification, 1024)}
	registry.Subscribe("drone-1", "adx", subscriber)

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			for j := 0; j < 32; j++ {
				registry.Notify("drone-1", "adx", EventPeerAddressChanged)
			}
		}()

		go func() {
			defer wg.Done()
			for j := 0; j < 32; j++ {
				registry.Subscribe("drone-2", "ua", &recordingSubscriber{})
				registry.Unsubscribe("drone-2", "ua")
			}
		}()
	}

	wg.Wait()
}
