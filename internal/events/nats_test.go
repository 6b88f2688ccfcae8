// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package events

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func startNATS(t *testing.T) *server.Server {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   server.RANDOM_PORT,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		t.Fatalf("create NATS server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(ns.Shutdown)
	return ns
}

func TestSubject(t *testing.T) {
	t.Parallel()

	if got := Subject("asdmgr", "AS_Server", 3); got != "asdmgr.AS_Server.3" {
		t.Errorf("Subject() = %q", got)
	}
}

func TestNATSPublisherDeliversEvent(t *testing.T) {
	ns := startNATS(t)

	sub, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connect subscriber: %v", err)
	}
	defer sub.Close()

	msgs := make(chan *nats.Msg, 4)
	if _, err := sub.ChanSubscribe("asdmgr.AS_Server.1", msgs); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := sub.Flush(); err != nil {
		t.Fatal(err)
	}

	pub, err := NewNATSPublisher(NATSConfig{URL: ns.ClientURL(), Service: "AS_Server", Index: 1})
	if err != nil {
		t.Fatalf("NewNATSPublisher() error = %v", err)
	}
	defer pub.Close()

	if pub.Subject() != "asdmgr.AS_Server.1" {
		t.Errorf("Subject() = %q", pub.Subject())
	}

	if err := pub.Publish(context.Background(), Event{Type: Launched, Service: "AS_Server", Index: 1, Phase: "waiting_ready"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-msgs:
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.Type != Launched || ev.Phase != "waiting_ready" {
			t.Errorf("event = %+v", ev)
		}
		if ev.ID == "" || ev.Time.IsZero() {
			t.Errorf("ID and Time should be filled in: %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestNATSPublisherCancelledContext(t *testing.T) {
	ns := startNATS(t)

	pub, err := NewNATSPublisher(NATSConfig{URL: ns.ClientURL(), Service: "AS_Server", Index: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pub.Publish(ctx, Event{Type: Stopped}); err == nil {
		t.Error("expected context error")
	}
}

func TestNopPublisher(t *testing.T) {
	t.Parallel()

	var p Publisher = NopPublisher{}
	if err := p.Publish(context.Background(), Event{Type: Ready}); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
	p.Close()
}
