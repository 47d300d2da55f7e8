package database

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"bad conn", driver.ErrBadConn, true},
		{"eof", io.EOF, true},
		{"dial refused", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connect: connection refused")}, true},
		{"pg connection failure", &pq.Error{Code: "08006"}, true},
		{"wrapped dial error", fmt.Errorf("failed to get bus: %w", &net.OpError{Op: "dial", Err: errors.New("refused")}), true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"serialization failure", &pq.Error{Code: "40001"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnectionError(tt.err))
		})
	}
}

func TestIsRetryableConflict(t *testing.T) {
	assert.True(t, IsRetryableConflict(&pq.Error{Code: "40001"}))
	assert.True(t, IsRetryableConflict(&pq.Error{Code: "40P01"}))
	assert.False(t, IsRetryableConflict(&pq.Error{Code: "23505"}))
	assert.False(t, IsRetryableConflict(errors.New("boom")))
}
