package flsql

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect holds the vendor specific parts of the statements a Store builds.
type Dialect struct {
	Name string
	// Placeholder returns the nth bind parameter, counted from 1.
	Placeholder func(n int) string
	// Quote quotes an identifier.
	Quote func(name string) string
	// OnConflictUpdate renders the clause that turns an INSERT into an upsert on the id column.
	OnConflictUpdate func(d Dialect, id ColumnName, cols []ColumnName) string
	// MaxParams is the number of bind parameters one statement may have.
	MaxParams int
}

var Postgres = Dialect{
	Name:             "postgres",
	Placeholder:      func(n int) string { return "$" + strconv.Itoa(n) },
	Quote:            doubleQuote,
	OnConflictUpdate: onConflictDoUpdate,
	MaxParams:        65535,
}

var SQLite = Dialect{
	Name:             "sqlite",
	Placeholder:      func(int) string { return "?" },
	Quote:            doubleQuote,
	OnConflictUpdate: onConflictDoUpdate,
	MaxParams:        32766,
}

// MySQL covers MySQL and MariaDB.
var MySQL = Dialect{
	Name:        "mysql",
	Placeholder: func(int) string { return "?" },
	Quote: func(name string) string {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	},
	OnConflictUpdate: func(d Dialect, id ColumnName, cols []ColumnName) string {
		var sets []string
		for _, col := range cols {
			if col == id {
				continue
			}
			c := d.Quote(string(col))
			sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", c, c))
		}
		if len(sets) == 0 {
			c := d.Quote(string(id))
			sets = append(sets, fmt.Sprintf("%s = %s", c, c))
		}
		return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	},
	MaxParams: 65535,
}

func doubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func onConflictDoUpdate(d Dialect, id ColumnName, cols []ColumnName) string {
	var sets []string
	for _, col := range cols {
		if col == id {
			continue
		}
		c := d.Quote(string(col))
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	if len(sets) == 0 {
		return fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", d.Quote(string(id)))
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", d.Quote(string(id)), strings.Join(sets, ", "))
}

func (d Dialect) columns(cols []ColumnName) string {
	quoted := make([]string, 0, len(cols))
	for _, col := range cols {
		quoted = append(quoted, d.Quote(string(col)))
	}
	return strings.Join(quoted, ", ")
}

// placeholders returns n bind parameters, starting after the offset.
func (d Dialect) placeholders(offset, n int) string {
	phs := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		phs = append(phs, d.Placeholder(offset+i))
	}
	return strings.Join(phs, ", ")
}
