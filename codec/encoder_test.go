package codec

import (
	"bytes"
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/mpack/errs"
)

func mustPack(t *testing.T, v any, opts ...PackOption) []byte {
	t.Helper()
	data, err := Pack(v, opts...)
	require.NoError(t, err)

	return data
}

func TestPack_Nil(t *testing.T) {
	require.Equal(t, []byte{0xc0}, mustPack(t, nil))
}

func TestPack_Bool(t *testing.T) {
	require.Equal(t, []byte{0xc3}, mustPack(t, true))
	require.Equal(t, []byte{0xc2}, mustPack(t, false))
}

func TestPack_IntLadder(t *testing.T) {
	tests := []struct {
		name string
		v    int64
		want []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"posfix max", 127, []byte{0x7f}},
		{"uint8 min", 128, []byte{0xcc, 0x80}},
		{"uint8 max", 255, []byte{0xcc, 0xff}},
		{"uint16 min", 256, []byte{0xcd, 0x01, 0x00}},
		{"uint16 max", 65535, []byte{0xcd, 0xff, 0xff}},
		{"uint32 min", 65536, []byte{0xce, 0x00, 0x01, 0x00, 0x00}},
		{"uint32 max", 1<<32 - 1, []byte{0xce, 0xff, 0xff, 0xff, 0xff}},
		{"uint64 min", 1 << 32, []byte{0xcf, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}},
		{"int64 max", math.MaxInt64, []byte{0xcf, 0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{"negfix max", -1, []byte{0xff}},
		{"negfix min", -32, []byte{0xe0}},
		{"int8 first", -33, []byte{0xd0, 0xdf}},
		{"int8 min", -128, []byte{0xd0, 0x80}},
		{"int16 first", -129, []byte{0xd1, 0xff, 0x7f}},
		{"int16 min", -32768, []byte{0xd1, 0x80, 0x00}},
		{"int32 first", -32769, []byte{0xd2, 0xff, 0xff, 0x7f, 0xff}},
		{"int32 min", math.MinInt32, []byte{0xd2, 0x80, 0x00, 0x00, 0x00}},
		{"int64 first", math.MinInt32 - 1, []byte{0xd3, 0xff, 0xff, 0xff, 0xff, 0x7f, 0xff, 0xff, 0xff}},
		{"int64 min", math.MinInt64, []byte{0xd3, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, mustPack(t, tt.v))
		})
	}
}

func TestPack_Uint64Max(t *testing.T) {
	want := []byte{0xcf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	require.Equal(t, want, mustPack(t, uint64(math.MaxUint64)))
}

func TestPack_IntKindsAgree(t *testing.T) {
	want := mustPack(t, int64(42))
	require.Equal(t, want, mustPack(t, int(42)))
	require.Equal(t, want, mustPack(t, int8(42)))
	require.Equal(t, want, mustPack(t, int16(42)))
	require.Equal(t, want, mustPack(t, int32(42)))
	require.Equal(t, want, mustPack(t, uint(42)))
	require.Equal(t, want, mustPack(t, uint8(42)))
	require.Equal(t, want, mustPack(t, uint16(42)))
	require.Equal(t, want, mustPack(t, uint32(42)))
	require.Equal(t, want, mustPack(t, uint64(42)))
}

func TestPack_BigInt(t *testing.T) {
	require.Equal(t, mustPack(t, int64(-5)), mustPack(t, big.NewInt(-5)))
	require.Equal(t,
		mustPack(t, uint64(math.MaxUint64)),
		mustPack(t, new(big.Int).SetUint64(math.MaxUint64)))

	var nilInt *big.Int
	require.Equal(t, []byte{0xc0}, mustPack(t, nilInt))
}

func TestPack_BigIntOutOfRange(t *testing.T) {
	big128 := new(big.Int).Lsh(big.NewInt(1), 64) // 2^64
	_, err := Pack(big128)
	require.ErrorIs(t, err, errs.ErrIntRange)

	neg := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 63))
	neg.Sub(neg, big.NewInt(1)) // -2^63 - 1
	_, err = Pack(neg)
	require.ErrorIs(t, err, errs.ErrIntRange)

	var encErr *errs.EncodeError
	require.ErrorAs(t, err, &encErr)
}

func TestPack_BigIntPassthrough(t *testing.T) {
	big128 := new(big.Int).Lsh(big.NewInt(1), 64)

	data, err := Pack(big128,
		WithOptions(OptPassthroughBigInt),
		WithDefault(func(v any) (any, error) {
			return v.(*big.Int).String(), nil
		}),
	)
	require.NoError(t, err)
	require.Equal(t, mustPack(t, "18446744073709551616"), data)
}

func TestPack_Float(t *testing.T) {
	require.Equal(t,
		[]byte{0xcb, 0x3f, 0xf0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		mustPack(t, 1.0))
	require.Equal(t, []byte{0xca, 0x3f, 0xc0, 0x00, 0x00}, mustPack(t, float32(1.5)))
}

func TestPack_FloatSpecials(t *testing.T) {
	require.Equal(t, byte(0xcb), mustPack(t, math.NaN())[0])
	require.Equal(t,
		[]byte{0xcb, 0x7f, 0xf0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		mustPack(t, math.Inf(1)))
	require.Equal(t,
		[]byte{0xcb, 0xff, 0xf0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		mustPack(t, math.Inf(-1)))
}

func TestPack_StrLadder(t *testing.T) {
	tests := []struct {
		n          int
		wantPrefix []byte
	}{
		{0, []byte{0xa0}},
		{31, []byte{0xbf}},
		{32, []byte{0xd9, 0x20}},
		{255, []byte{0xd9, 0xff}},
		{256, []byte{0xda, 0x01, 0x00}},
		{65535, []byte{0xda, 0xff, 0xff}},
		{65536, []byte{0xdb, 0x00, 0x01, 0x00, 0x00}},
	}

	for _, tt := range tests {
		s := strings.Repeat("a", tt.n)
		data := mustPack(t, s)
		require.Equal(t, tt.wantPrefix, data[:len(tt.wantPrefix)], "len %d", tt.n)
		require.Equal(t, len(tt.wantPrefix)+tt.n, len(data), "len %d", tt.n)
	}
}

func TestPack_StrUTF8(t *testing.T) {
	data := mustPack(t, "東京")
	require.Equal(t, append([]byte{0xa6}, "東京"...), data)
}

func TestPack_StrInvalidUTF8(t *testing.T) {
	_, err := Pack(string([]byte{0xed, 0xa0, 0x80})) // lone surrogate encoding
	require.ErrorIs(t, err, errs.ErrUnsupportedType)

	_, err = Pack(string([]byte{0xff, 0xfe}))
	require.ErrorIs(t, err, errs.ErrUnsupportedType)

	_, err = Pack(map[string]any{string([]byte{0xff}): nil})
	require.Error(t, err)
}

func TestPack_BinLadder(t *testing.T) {
	tests := []struct {
		n          int
		wantPrefix []byte
	}{
		{0, []byte{0xc4, 0x00}},
		{255, []byte{0xc4, 0xff}},
		{256, []byte{0xc5, 0x01, 0x00}},
		{65535, []byte{0xc5, 0xff, 0xff}},
		{65536, []byte{0xc6, 0x00, 0x01, 0x00, 0x00}},
	}

	for _, tt := range tests {
		data := mustPack(t, make([]byte, tt.n))
		require.Equal(t, tt.wantPrefix, data[:len(tt.wantPrefix)], "len %d", tt.n)
		require.Equal(t, len(tt.wantPrefix)+tt.n, len(data), "len %d", tt.n)
	}
}

func TestPack_ArrayLadder(t *testing.T) {
	tests := []struct {
		n          int
		wantPrefix []byte
	}{
		{0, []byte{0x90}},
		{15, []byte{0x9f}},
		{16, []byte{0xdc, 0x00, 0x10}},
		{65535, []byte{0xdc, 0xff, 0xff}},
		{65536, []byte{0xdd, 0x00, 0x01, 0x00, 0x00}},
	}

	for _, tt := range tests {
		vals := make([]any, tt.n)
		data := mustPack(t, vals)
		require.Equal(t, tt.wantPrefix, data[:len(tt.wantPrefix)], "count %d", tt.n)
		require.Equal(t, len(tt.wantPrefix)+tt.n, len(data), "count %d", tt.n) // each nil is one byte
	}
}

func TestPack_MapLadder(t *testing.T) {
	build := func(n int) map[string]any {
		m := make(map[string]any, n)
		for i := 0; i < n; i++ {
			m[string(rune('a'+i%26))+strings.Repeat("k", i/26+1)] = nil
		}

		return m
	}

	require.Equal(t, []byte{0x80}, mustPack(t, map[string]any{}))

	m15 := build(15)
	require.Equal(t, byte(0x8f), mustPack(t, m15)[0])

	m16 := build(16)
	require.Equal(t, []byte{0xde, 0x00, 0x10}, mustPack(t, m16)[:3])
}

func TestPack_NestedContainers(t *testing.T) {
	v := []any{
		"a",
		true,
		map[string]any{"b": 1.1},
		int64(2),
	}
	data := mustPack(t, v)
	require.Equal(t, byte(0x94), data[0])
}

func TestPack_Tuple(t *testing.T) {
	require.Equal(t,
		mustPack(t, []any{int64(1), int64(2)}),
		mustPack(t, Tuple{int64(1), int64(2)}))
}

func TestPack_GoArrayAsTuple(t *testing.T) {
	require.Equal(t,
		mustPack(t, []any{int64(1), int64(2)}),
		mustPack(t, [2]any{int64(1), int64(2)}))
}

func TestPack_TuplePassthrough(t *testing.T) {
	_, err := Pack(Tuple{int64(1)}, WithOptions(OptPassthroughTuple))
	require.ErrorIs(t, err, errs.ErrUnsupportedType)

	data, err := Pack(Tuple{int64(1), int64(2)},
		WithOptions(OptPassthroughTuple),
		WithDefault(func(v any) (any, error) {
			return "tuple", nil
		}),
	)
	require.NoError(t, err)
	require.Equal(t, mustPack(t, "tuple"), data)
}

func TestPack_TypedSlices(t *testing.T) {
	require.Equal(t,
		mustPack(t, []any{int64(1), int64(2), int64(3)}),
		mustPack(t, []int{1, 2, 3}))
	require.Equal(t,
		mustPack(t, []any{"x", "y"}),
		mustPack(t, []string{"x", "y"}))
}

func TestPack_TypedMap(t *testing.T) {
	require.Equal(t,
		mustPack(t, map[string]any{"a": int64(1)}),
		mustPack(t, map[string]int{"a": 1}))
}

func TestPack_MapNonStrKeyRejected(t *testing.T) {
	_, err := Pack(map[any]any{int64(1): "value"})
	require.ErrorIs(t, err, errs.ErrNonStrKey)

	_, err = Pack(map[int]string{1: "value"})
	require.ErrorIs(t, err, errs.ErrNonStrKey)
}

func TestPack_SortKeys(t *testing.T) {
	m := map[string]any{"b": int64(1), "a": int64(2), "c": int64(3)}

	data := mustPack(t, m, WithOptions(OptSortKeys))

	want := []byte{0x83, 0xa1, 'a', 0x02, 0xa1, 'b', 0x01, 0xa1, 'c', 0x03}
	require.Equal(t, want, data)
}

func TestPack_SortKeysDeterministic(t *testing.T) {
	m := map[string]any{}
	for i := 0; i < 64; i++ {
		m[strings.Repeat("k", i+1)] = int64(i)
	}

	first := mustPack(t, m, WithOptions(OptSortKeys))
	for i := 0; i < 8; i++ {
		require.Equal(t, first, mustPack(t, m, WithOptions(OptSortKeys)))
	}
}

func TestPack_SortKeysAnyMap(t *testing.T) {
	m := map[any]any{"b": int64(1), "a": int64(2)}

	data := mustPack(t, m, WithOptions(OptSortKeys))

	require.Equal(t, []byte{0x82, 0xa1, 'a', 0x02, 0xa1, 'b', 0x01}, data)
}

func TestPack_Determinism(t *testing.T) {
	v := []any{int64(1), "two", 3.0, []byte{4}, map[string]any{"five": nil}}
	require.Equal(t, mustPack(t, v), mustPack(t, v))
}

func TestPack_OptionIdempotent(t *testing.T) {
	m := map[string]any{"b": int64(1), "a": int64(2)}
	require.Equal(t,
		mustPack(t, m, WithOptions(OptSortKeys)),
		mustPack(t, m, WithOptions(OptSortKeys|OptSortKeys)))
	require.Equal(t,
		mustPack(t, m, WithOptions(OptSortKeys)),
		mustPack(t, m, WithOptions(OptSortKeys), WithOptions(OptSortKeys)))
}

func TestPack_UUID(t *testing.T) {
	id := uuid.MustParse("7202d115-7ff3-4c81-a7c1-2a1f067b1ece")
	require.Equal(t, mustPack(t, "7202d115-7ff3-4c81-a7c1-2a1f067b1ece"), mustPack(t, id))
}

func TestPack_UUIDPassthrough(t *testing.T) {
	id := uuid.MustParse("7202d115-7ff3-4c81-a7c1-2a1f067b1ece")

	_, err := Pack(id, WithOptions(OptPassthroughUUID))
	require.ErrorIs(t, err, errs.ErrUnsupportedType)

	data, err := Pack(id,
		WithOptions(OptPassthroughUUID),
		WithDefault(func(v any) (any, error) {
			return v.(uuid.UUID).URN(), nil
		}),
	)
	require.NoError(t, err)
	require.Equal(t, mustPack(t, "urn:uuid:7202d115-7ff3-4c81-a7c1-2a1f067b1ece"), data)
}

func TestPack_Ext(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		wantPrefix []byte
	}{
		{"fixext1", []byte{0x00}, []byte{0xd4, 0x01}},
		{"fixext2", make([]byte, 2), []byte{0xd5, 0x01}},
		{"fixext4", make([]byte, 4), []byte{0xd6, 0x01}},
		{"fixext8", make([]byte, 8), []byte{0xd7, 0x01}},
		{"fixext16", make([]byte, 16), []byte{0xd8, 0x01}},
		{"ext8", make([]byte, 3), []byte{0xc7, 0x03, 0x01}},
		{"ext8 empty", nil, []byte{0xc7, 0x00, 0x01}},
		{"ext16", make([]byte, 256), []byte{0xc8, 0x01, 0x00, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := mustPack(t, Ext{Tag: 1, Data: tt.data})
			require.Equal(t, tt.wantPrefix, data[:len(tt.wantPrefix)])
			require.Equal(t, len(tt.wantPrefix)+len(tt.data), len(data))
		})
	}
}

func TestPack_ExtSeedScenario(t *testing.T) {
	require.Equal(t, []byte{0xd4, 0x01, 0x00}, mustPack(t, Ext{Tag: 1, Data: []byte{0x00}}))
}

func TestPack_ExtNegativeTag(t *testing.T) {
	data := mustPack(t, Ext{Tag: -1, Data: []byte{0xaa}})
	require.Equal(t, []byte{0xd4, 0xff, 0xaa}, data)
}

func TestNewExt_TagRange(t *testing.T) {
	_, err := NewExt(127, nil)
	require.NoError(t, err)
	_, err = NewExt(-128, nil)
	require.NoError(t, err)
	_, err = NewExt(128, nil)
	require.Error(t, err)
	_, err = NewExt(-129, nil)
	require.Error(t, err)
}

func TestPack_DepthLimit(t *testing.T) {
	v := any(nil)
	for i := 0; i < 1024; i++ {
		v = []any{v}
	}
	_, err := Pack(v)
	require.NoError(t, err)

	v = []any{v} // 1025 levels
	_, err = Pack(v)
	require.ErrorIs(t, err, errs.ErrDepthExceeded)
}

func TestPack_CircularMap(t *testing.T) {
	m := map[string]any{}
	m["self"] = m

	_, err := Pack(m)
	require.ErrorIs(t, err, errs.ErrDepthExceeded)
}

func TestPack_CircularSlice(t *testing.T) {
	a := []any{nil}
	a[0] = a

	_, err := Pack(a)
	require.ErrorIs(t, err, errs.ErrDepthExceeded)
}

func TestPack_CircularNested(t *testing.T) {
	m := map[string]any{}
	m["list"] = []any{map[string]any{"obj": m}}

	_, err := Pack(m)
	require.ErrorIs(t, err, errs.ErrDepthExceeded)
}

func TestPack_UnsupportedType(t *testing.T) {
	_, err := Pack(make(chan int))
	require.ErrorIs(t, err, errs.ErrUnsupportedType)

	var encErr *errs.EncodeError
	require.ErrorAs(t, err, &encErr)
	require.Contains(t, encErr.Error(), "not msgpack serializable")
}

func TestPack_EncodeDoesNotMutate(t *testing.T) {
	payload := []byte{1, 2, 3}
	v := []any{payload, "s"}
	data := mustPack(t, v)

	require.Equal(t, []byte{1, 2, 3}, payload)

	// Mutating the returned buffer must not affect a re-encode.
	data[0] = 0x00
	require.Equal(t, byte(0x92), mustPack(t, v)[0])
}

func TestPack_BufferGrowth(t *testing.T) {
	// Push the output buffer far past its initial 4KiB capacity in one value.
	a := strings.Repeat("a", 900)
	b := strings.Repeat("b", 4096)
	c := strings.Repeat("c", 1<<20)

	data := mustPack(t, []any{a, b, c})
	require.Equal(t, byte(0x93), data[0])
	require.True(t, bytes.HasSuffix(data, []byte(c[:64])))
}
