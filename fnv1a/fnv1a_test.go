package fnv1a

import (
	"fmt"
	"hash/fnv"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aglyzov/go-hashtree/alloc"
)

func TestNew(t *testing.T) {
	t.Parallel()

	for _, tcase := range []*struct {
		Width  Width
		Offset uint64
	}{
		{Width32, 0x811c9dc5},
		{Width64, 0xcbf29ce484222325},
	} {
		tcase := tcase

		t.Run(fmt.Sprintf("%d", tcase.Width), func(t *testing.T) {
			h, err := New(WithWidth(tcase.Width))
			require.NoError(t, err)
			defer h.Destroy()

			sum, err := h.Sum()
			require.NoError(t, err)
			assert.Equal(t, tcase.Offset, sum)
			assert.Equal(t, tcase.Width, h.Width())
		})
	}
}

func TestNew_DefaultWidth(t *testing.T) {
	t.Parallel()

	h, err := New()
	require.NoError(t, err)
	defer h.Destroy()

	assert.Equal(t, Width64, h.Width())
}

func TestNew_BadWidth(t *testing.T) {
	t.Parallel()

	_, err := New(WithWidth(16))

	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNew_OutOfMemory(t *testing.T) {
	t.Parallel()

	_, err := New(WithAllocator(alloc.NewBudget(0)))

	require.ErrorIs(t, err, ErrOutOfMemory)
}

func TestAdd_InvalidArgument(t *testing.T) {
	t.Parallel()

	h, err := New()
	require.NoError(t, err)
	defer h.Destroy()

	before, err := h.Sum()
	require.NoError(t, err)

	_, err = h.Add(nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = h.Add([]byte{})
	require.ErrorIs(t, err, ErrInvalidArgument)

	after, err := h.Sum()
	require.NoError(t, err)
	assert.Equal(t, before, after, "a rejected add must not touch the digest")

	var nilHash *Hash

	_, err = nilHash.Add([]byte("x"))
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = nilHash.Sum()
	require.ErrorIs(t, err, ErrInvalidArgument)

	assert.Zero(t, nilHash.Width())
	nilHash.Destroy()
}

func TestAdd_MatchesStdlib(t *testing.T) {
	t.Parallel()

	fake := gofakeit.New(1234567890)

	for i := 0; i < 100; i++ {
		key := []byte(fake.Sentence(4))

		h32, h64 := fnv.New32a(), fnv.New64a()
		_, _ = h32.Write(key)
		_, _ = h64.Write(key)

		d32, err := Digest(Width32, key)
		require.NoError(t, err)
		assert.Equal(t, uint64(h32.Sum32()), d32, "%q", key)

		d64, err := Digest(Width64, key)
		require.NoError(t, err)
		assert.Equal(t, h64.Sum64(), d64, "%q", key)
	}
}

func TestAdd_Streaming(t *testing.T) {
	t.Parallel()

	whole, err := Digest(Width64, []byte("hello, world"))
	require.NoError(t, err)

	h, err := New()
	require.NoError(t, err)
	defer h.Destroy()

	_, err = h.Add([]byte("hello"))
	require.NoError(t, err)
	part, err := h.Add([]byte(", world"))
	require.NoError(t, err)

	assert.Equal(t, whole, part)

	sum, err := h.Sum()
	require.NoError(t, err)
	assert.Equal(t, part, sum)
}

func TestAdd_Deterministic(t *testing.T) {
	t.Parallel()

	key := []byte("determinism")

	first, err := Digest(Width64, key)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		next, err := Digest(Width64, key)
		require.NoError(t, err)
		assert.Equal(t, first, next)
	}
}

func TestAdd_OneByteDiffers(t *testing.T) {
	t.Parallel()

	for _, width := range []Width{Width32, Width64} {
		a, err := Digest(width, []byte("bucket-0001"))
		require.NoError(t, err)
		b, err := Digest(width, []byte("bucket-0002"))
		require.NoError(t, err)

		assert.NotEqual(t, a, b)
	}
}

func TestDestroy_ReleasesBudget(t *testing.T) {
	t.Parallel()

	budget := alloc.NewBudget(1 << 10)

	h, err := New(WithAllocator(budget))
	require.NoError(t, err)
	assert.Equal(t, hashSize, budget.Used())

	h.Destroy()
	assert.Zero(t, budget.Used())

	h.Destroy() // idempotent
	assert.Zero(t, budget.Used())

	_, err = h.Add([]byte("x"))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func BenchmarkDigest64(b *testing.B) {
	key := []byte("Kogi biodiesel dreamcatcher mumblecore irony.")

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = Digest(Width64, key)
	}
}

func BenchmarkStdlib64(b *testing.B) {
	key := []byte("Kogi biodiesel dreamcatcher mumblecore irony.")

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		h := fnv.New64a()
		_, _ = h.Write(key)
		_ = h.Sum64()
	}
}
