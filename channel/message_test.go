package channel

import (
	"net"
	"testing"

	sctp "github.com/georgeyanev/sctp-channel"
)

func TestNewSctpMessageAccessors(t *testing.T) {
	payload := []byte("hello")
	msg := NewSctpMessage(payload, 3, 42, true)

	if string(msg.Payload()) != "hello" {
		t.Fatalf("got payload %q, want %q", msg.Payload(), "hello")
	}
	if msg.StreamID() != 3 {
		t.Fatalf("got stream id %d, want 3", msg.StreamID())
	}
	if msg.ProtocolID() != 42 {
		t.Fatalf("got protocol id %d, want 42", msg.ProtocolID())
	}
	if !msg.Unordered() {
		t.Fatal("expected unordered to be true")
	}
}

func TestAssociationAddressesEnumeratesMultiHoming(t *testing.T) {
	a := &Association{
		local: &sctp.SCTPAddr{IPAddrs: []net.IPAddr{
			{IP: net.ParseIP("127.0.0.1")},
			{IP: net.ParseIP("127.0.0.2")},
		}, Port: 1000},
	}
	addrs := a.LocalAddresses()
	if len(addrs) != 2 {
		t.Fatalf("got %d local addresses, want 2", len(addrs))
	}
}

func TestAssociationAddressesSwallowsNonSCTPAddr(t *testing.T) {
	a := &Association{remote: &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 1000}}
	if addrs := a.RemoteAddresses(); addrs != nil {
		t.Fatalf("got %v, want nil for a non-SCTPAddr handle", addrs)
	}
}
