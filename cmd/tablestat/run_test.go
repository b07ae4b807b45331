package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"github.com/aglyzov/go-hashtree/alloc"
	"github.com/aglyzov/go-hashtree/fnv1a"
	"github.com/aglyzov/go-hashtree/hashtable"
)

func TestTally(t *testing.T) {
	t.Parallel()

	var (
		cfg   = &Config{Buckets: 4, Width: 64}
		input = strings.NewReader("alpha\nbeta\n\nalpha\ngamma\n")
	)

	report, err := tally(cfg, []io.Reader{input}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 5, report.Lines)
	assert.Equal(t, 3, report.Added)
	assert.Equal(t, 1, report.Empty)
	assert.Equal(t, 1, report.Duplicates)
	assert.Zero(t, report.Collisions)
	assert.Equal(t, 4, report.Buckets)
	assert.LessOrEqual(t, report.Occupied, 3)
	assert.Zero(t, report.BudgetUsed)
}

func TestTally_SeveralInputs(t *testing.T) {
	t.Parallel()

	var (
		cfg    = &Config{Buckets: 8, Width: 64}
		inputs = []io.Reader{
			strings.NewReader("a\nb"),
			strings.NewReader("c\na\n"),
		}
	)

	report, err := tally(cfg, inputs, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 4, report.Lines)
	assert.Equal(t, 3, report.Added)
	assert.Equal(t, 1, report.Duplicates)
}

func TestTally_Collision(t *testing.T) {
	t.Parallel()

	// two keys sharing a 32-bit FNV-1a digest
	const (
		holder = "key-901258"
		other  = "key-1540052"
	)

	d1, err := fnv1a.Digest(fnv1a.Width32, []byte(holder))
	require.NoError(t, err)
	d2, err := fnv1a.Digest(fnv1a.Width32, []byte(other))
	require.NoError(t, err)
	require.Equal(t, d1, d2)

	lines := []string{holder, other, holder}

	var (
		cfg   = &Config{Buckets: 16, Width: 32}
		input = strings.NewReader(strings.Join(lines, "\n"))
	)

	report, err := tally(cfg, []io.Reader{input}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Lines)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Collisions)
	assert.Equal(t, 1, report.Duplicates)
}

func TestTally_Budget(t *testing.T) {
	t.Parallel()

	input := strings.NewReader("alpha\nbeta\n")

	report, err := tally(&Config{Buckets: 4, Width: 64, Budget: 1 << 20}, []io.Reader{input}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NotZero(t, report.BudgetUsed)

	_, err = tally(&Config{Buckets: 1 << 16, Width: 64, Budget: 64}, []io.Reader{input}, zaptest.NewLogger(t))
	require.ErrorIs(t, err, hashtable.ErrOutOfMemory)
}

func TestRun(t *testing.T) {
	t.Parallel()

	var (
		keys   = writeFile(t, "keys.txt", "one\ntwo\nthree\ntwo\n")
		config = writeFile(t, "config.yaml", "buckets: 2\nwidth: 32\n")
		out    bytes.Buffer
	)

	err := Run([]string{"-f", config, "--buckets", "5", keys}, strings.NewReader(""), &out)
	require.NoError(t, err)

	var report Report
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &report))

	assert.Equal(t, 4, report.Lines)
	assert.Equal(t, 3, report.Added)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 5, report.Buckets, "flags override the file")
}

func TestRun_Stdin(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	err := Run(nil, strings.NewReader("x\ny\n"), &out)
	require.NoError(t, err)

	var report Report
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &report))

	assert.Equal(t, 2, report.Added)
	assert.Equal(t, defaultBuckets, report.Buckets)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	for _, tcase := range []*struct {
		Name string
		Args []string
	}{
		{"bad-width", []string{"--width", "16"}},
		{"bad-buckets", []string{"--buckets", "-1"}},
		{"unknown-flag", []string{"--nope"}},
		{"missing-file", []string{"/nonexistent/keys.txt"}},
		{"missing-config", []string{"-f", "/nonexistent/config.yaml"}},
	} {
		tcase := tcase

		t.Run(tcase.Name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer

			require.Error(t, Run(tcase.Args, strings.NewReader(""), &out))
		})
	}
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	require.NoError(t, Run([]string{"--help"}, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "--buckets")
	assert.Contains(t, out.String(), "--pool")
	assert.Contains(t, out.String(), "development logger")
}

func TestTally_ErrorLine(t *testing.T) {
	t.Parallel()

	const poolSize = 2

	// room for the table and one hash accumulator, none for pool growth
	measure := alloc.NewBudget(1 << 20)
	tbl, err := hashtable.New(4, hashtable.WithAllocator(measure), hashtable.WithPoolSize(poolSize))
	require.NoError(t, err)
	base := measure.Used()
	tbl.Destroy()

	h, err := fnv1a.New(fnv1a.WithAllocator(measure))
	require.NoError(t, err)
	hashSize := measure.Used()
	h.Destroy()

	var (
		cfg    = &Config{Buckets: 4, Width: 64, Budget: base + hashSize, PoolSize: poolSize}
		inputs = []io.Reader{
			strings.NewReader("a\nb\n"),
			strings.NewReader("\nc\n"),
		}
	)

	_, err = tally(cfg, inputs, zaptest.NewLogger(t))
	require.ErrorIs(t, err, hashtable.ErrOutOfMemory)
	assert.Contains(t, err.Error(), "input 1 line 2")
}
