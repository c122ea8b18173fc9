package retry

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassifier_MySQLErrors(t *testing.T) {
	tests := []struct {
		number uint16
		want   bool
	}{
		{1040, true},  // too many connections
		{1205, true},  // lock wait timeout
		{1213, true},  // deadlock
		{1053, true},  // server shutdown
		{1045, false}, // access denied
		{1049, false}, // unknown database
		{1146, false}, // table doesn't exist
		{1064, false}, // syntax error
	}
	c := NewClassifier()
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.number), func(t *testing.T) {
			err := fmt.Errorf("exec: %w", &mysql.MySQLError{Number: tt.number, Message: "x"})
			if got := c.IsTransient(err); got != tt.want {
				t.Errorf("IsTransient(mysql %d) = %v, want %v", tt.number, got, tt.want)
			}
		})
	}
}

func TestClassifier_PostgreSQLErrors(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"08006", true},
		{"08001", true},
		{"53300", true},
		{"57P03", true},
		{"40001", true},
		{"40P01", true},
		{"55P03", true},
		{"28P01", false}, // invalid password
		{"3D000", false}, // invalid catalog name
		{"42P01", false}, // undefined table
		{"23505", false}, // unique violation
	}
	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := c.IsTransient(&pgconn.PgError{Code: tt.code}); got != tt.want {
				t.Errorf("IsTransient(%s) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestClassifier_DriverAndNetworkErrors(t *testing.T) {
	c := NewClassifier()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad conn", fmt.Errorf("ping: %w", driver.ErrBadConn), true},
		{"mysql invalid conn", mysql.ErrInvalidConn, true},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"dns temporary", &net.DNSError{Err: "server misbehaving", IsTemporary: true}, true},
		{"dns not found", &net.DNSError{Err: "no such host", IsNotFound: true}, false},
		{"message only", errors.New("dial tcp 10.0.0.1:3306: i/o timeout"), true},
		{"context canceled", context.Canceled, false},
		{"plain", errors.New("syntax error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
