package retry

import (
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// MySQL server error numbers treated as transient.
// See: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	mysqlConCount         = 1040 // ER_CON_COUNT_ERROR: too many connections
	mysqlServerShutdown   = 1053 // ER_SERVER_SHUTDOWN
	mysqlLockWaitTimeout  = 1205 // ER_LOCK_WAIT_TIMEOUT
	mysqlLockDeadlock     = 1213 // ER_LOCK_DEADLOCK
	mysqlQueryInterrupted = 1317 // ER_QUERY_INTERRUPTED
	mysqlTooManyUserConns = 1203 // ER_TOO_MANY_USER_CONNECTIONS
	mysqlReadOnlyFailover = 1290 // ER_OPTION_PREVENTS_STATEMENT (read-only during failover)
	mysqlClientLostConn   = 2013 // CR_SERVER_LOST
	mysqlClientServerGone = 2006 // CR_SERVER_GONE_ERROR
)

// PostgreSQL SQLSTATE codes outside the always-transient classes.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeLockNotAvailable     = "55P03"
)

// transientPGClasses are SQLSTATE classes that are always retryable:
// 08 connection exception, 53 insufficient resources, 57 operator intervention.
var transientPGClasses = []string{"08", "53", "57"}

// Classifier implements oews.ErrorClassifier for both supported drivers.
type Classifier struct{}

// NewClassifier creates the classifier used for store connections.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// IsTransient reports whether err is worth retrying.
func (c *Classifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return isTransientMySQL(myErr.Number)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientPG(pgErr.Code)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	return isNetworkError(err) || hasTransientMessage(err)
}

func isTransientMySQL(number uint16) bool {
	switch number {
	case mysqlConCount, mysqlServerShutdown, mysqlLockWaitTimeout, mysqlLockDeadlock,
		mysqlQueryInterrupted, mysqlTooManyUserConns, mysqlReadOnlyFailover,
		mysqlClientLostConn, mysqlClientServerGone:
		return true
	}
	return false
}

func isTransientPG(code string) bool {
	for _, class := range transientPGClasses {
		if strings.HasPrefix(code, class) {
			return true
		}
	}
	switch code {
	case pgCodeSerializationFailure, pgCodeDeadlockDetected, pgCodeLockNotAvailable:
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
			if errors.Is(opErr.Err, errno) {
				return true
			}
		}
	}
	return false
}

// transientPatterns catch wrapped errors whose types were lost (for example
// errors crossing the cloudsqlconn dialer).
var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"bad connection",
	"invalid connection",
	"unexpected eof",
	"network is unreachable",
}

func hasTransientMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
