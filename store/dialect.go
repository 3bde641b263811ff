package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dialect is the SQL that differs between the sqlite and postgres backends.
// Queries are written for sqlite with a {now} token for the current time.
type dialect struct {
	name     string
	now      string
	numbered bool // $1, $2 placeholders
}

var (
	sqliteDialect   = dialect{name: "sqlite", now: "datetime('now','localtime')"}
	postgresDialect = dialect{name: "postgres", now: "NOW()", numbered: true}
)

// sqliteStamp is the text form datetime('now','localtime') writes.
const sqliteStamp = "2006-01-02 15:04:05"

func (d dialect) rewrite(query string) string {
	query = strings.ReplaceAll(query, "{now}", d.now)
	if !d.numbered {
		return query
	}
	buf := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			buf = append(buf, query[i])
			continue
		}
		n++
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(n), 10)
	}
	return string(buf)
}

// ago is an expression for the time age before now.
func (d dialect) ago(age time.Duration) string {
	secs := int64(age / time.Second)
	if d.numbered {
		return fmt.Sprintf("NOW() - INTERVAL '%d seconds'", secs)
	}
	return fmt.Sprintf("datetime('now','localtime','-%d seconds')", secs)
}

// stamp scans a timestamp column: sqlite text in sqliteStamp form or a
// time.Time from pgx. NULL and empty text leave it unset.
type stamp struct {
	t   time.Time
	set bool
}

func (s *stamp) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*s = stamp{}
	case time.Time:
		*s = stamp{t: x, set: true}
	case string:
		return s.parse(x)
	case []byte:
		return s.parse(string(x))
	default:
		return fmt.Errorf("store: cannot scan %T as a timestamp", v)
	}
	return nil
}

func (s *stamp) parse(text string) error {
	if text == "" {
		*s = stamp{}
		return nil
	}
	t, err := time.ParseInLocation(sqliteStamp, text, time.Local)
	if err != nil {
		return fmt.Errorf("store: timestamp %q: %w", text, err)
	}
	*s = stamp{t: t, set: true}
	return nil
}

func (s stamp) ptr() *time.Time {
	if !s.set {
		return nil
	}
	t := s.t
	return &t
}
