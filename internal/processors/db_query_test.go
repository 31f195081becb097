package processors_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/processors"
)

func TestPsqlTableKeepsHeadAndTailRows(t *testing.T) {
	p := processors.NewDBQuery(config.Default())

	lines := []string{
		" id |  name    | status",
		"----+----------+--------",
	}
	for i := 1; i <= 30; i++ {
		lines = append(lines, fmt.Sprintf(" %2d | alpha-%02d | active", i, i))
	}
	lines = append(lines, "(30 rows)")

	want := []string{
		" id |  name    | status",
		"----+----------+--------",
	}
	for i := 1; i <= 10; i++ {
		want = append(want, fmt.Sprintf(" %2d | alpha-%02d | active", i, i))
	}
	want = append(want, "  ... (10 rows omitted)")
	for i := 21; i <= 30; i++ {
		want = append(want, fmt.Sprintf(" %2d | alpha-%02d | active", i, i))
	}
	want = append(want, "(30 rows)")

	got := p.Process("psql -c 'select id, name, status from things'", strings.Join(lines, "\n"))
	assert.Equal(t, strings.Join(want, "\n"), got)
}

func TestMysqlTableKeepsHeadAndTailRows(t *testing.T) {
	p := processors.NewDBQuery(config.Default())

	border := "+----+----------+--------+"
	lines := []string{
		border,
		"| id | name     | status |",
		border,
	}
	for i := 1; i <= 25; i++ {
		lines = append(lines, fmt.Sprintf("| %2d | beta-%02d  | active |", i, i))
	}
	lines = append(lines, border, "25 rows in set (0.01 sec)")

	want := []string{
		border,
		"| id | name     | status |",
		border,
	}
	for i := 1; i <= 10; i++ {
		want = append(want, fmt.Sprintf("| %2d | beta-%02d  | active |", i, i))
	}
	want = append(want, "| ... (5 rows omitted)")
	for i := 16; i <= 25; i++ {
		want = append(want, fmt.Sprintf("| %2d | beta-%02d  | active |", i, i))
	}
	want = append(want, border, "25 rows in set (0.01 sec)")

	got := p.Process("mysql -e 'select * from things'", strings.Join(lines, "\n"))
	assert.Equal(t, strings.Join(want, "\n"), got)
}

func TestCSVOutputKeepsHeadTailAndShape(t *testing.T) {
	p := processors.NewDBQuery(config.Default())

	lines := []string{"id,name,email"}
	for i := 1; i <= 30; i++ {
		lines = append(lines, fmt.Sprintf("%d,user-%02d,user%02d@example.com", i, i, i))
	}

	want := []string{"id,name,email"}
	for i := 1; i <= 10; i++ {
		want = append(want, fmt.Sprintf("%d,user-%02d,user%02d@example.com", i, i, i))
	}
	want = append(want, "... (15 rows omitted)")
	for i := 26; i <= 30; i++ {
		want = append(want, fmt.Sprintf("%d,user-%02d,user%02d@example.com", i, i, i))
	}
	want = append(want, "\n(30 data rows, 3 columns)")

	got := p.Process("sqlite3 -csv app.db 'select id, name, email from users'", strings.Join(lines, "\n"))
	assert.Equal(t, strings.Join(want, "\n"), got)
}

func TestDbFallbackTruncatesPlainOutput(t *testing.T) {
	p := processors.NewDBQuery(config.Default())

	var lines []string
	for i := 0; i < 40; i++ {
		lines = append(lines, fmt.Sprintf("NOTICE  processing batch %02d", i))
	}

	var want []string
	for i := 0; i < 15; i++ {
		want = append(want, fmt.Sprintf("NOTICE  processing batch %02d", i))
	}
	want = append(want, "... (20 rows omitted)")
	for i := 35; i < 40; i++ {
		want = append(want, fmt.Sprintf("NOTICE  processing batch %02d", i))
	}

	got := p.Process("psql -f migrate.sql", strings.Join(lines, "\n"))
	assert.Equal(t, strings.Join(want, "\n"), got)
}

func TestPsqlSmallTableUntouched(t *testing.T) {
	p := processors.NewDBQuery(config.Default())

	in := strings.Join([]string{
		" id | name",
		"----+------",
		"  1 | a",
		"  2 | b",
		"(2 rows)",
	}, "\n")
	assert.Equal(t, in, p.Process("psql -c 'select id, name from t'", in))
}
