package catalog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := &Error{Op: OpFetchItem, Kind: KindNotFound, Identifier: "missingno", StatusCode: 404}
	assert.Equal(t, "catalog.fetch_item: not_found (missingno): status 404", err.Error())

	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())
}

func TestIsKindThroughWrapping(t *testing.T) {
	root := errors.New("root")
	err := fmt.Errorf("handler: %w", &Error{Op: OpListItems, Kind: KindUpstream, Err: root})

	assert.True(t, IsKind(err, KindUpstream))
	assert.False(t, IsKind(err, KindInternal))
	assert.ErrorIs(t, err, root)
	assert.False(t, IsKind(root, KindUpstream))
}

func TestClassifyTransport(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantKind    Kind
		wantTimeout bool
	}{
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), KindUnavailable, true},
		{"dial refused", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, KindUnavailable, false},
		{"dns", &net.DNSError{Err: "no such host", Name: "pokeapi.invalid"}, KindUnavailable, false},
		{"read reset", &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset")}, KindInternal, false},
		{"canceled", context.Canceled, KindInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := classifyTransport(OpFetchItem, "25", tt.err)
			assert.Equal(t, tt.wantKind, e.Kind)
			assert.Equal(t, tt.wantTimeout, e.Timeout)
			assert.Equal(t, "25", e.Identifier)
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, KindNotFound, classifyStatus(OpFetchItem, "x", 404, true).Kind)
	assert.Equal(t, KindUpstream, classifyStatus(OpListItems, "", 404, false).Kind)
	assert.Equal(t, KindUpstream, classifyStatus(OpFetchItem, "x", 503, true).Kind)
}
