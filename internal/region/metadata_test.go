package region

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInfoNameAndEncodedName(t *testing.T) {
	info := NewInfo("users", []byte("m"), []byte("t"), 42)
	require.Equal(t, "users,m,42", info.Name())

	same := NewInfo("users", []byte("m"), []byte("t"), 42)
	require.Equal(t, info.EncodedName(), same.EncodedName())

	other := NewInfo("users", []byte("m"), []byte("t"), 43)
	require.NotEqual(t, info.EncodedName(), other.EncodedName())
}

func TestNewInfoCopiesKeys(t *testing.T) {
	start := []byte("a")
	info := NewInfo("t", start, nil, 1)
	start[0] = 'z'
	require.Equal(t, []byte("a"), info.Range.Start)
}

func TestInfoContainsKey(t *testing.T) {
	info := NewInfo(MetaTableName, []byte("b"), []byte("d"), 7)
	require.False(t, info.ContainsKey([]byte("a")))
	require.True(t, info.ContainsKey([]byte("b")))
	require.True(t, info.ContainsKey([]byte("c,x,1")))
	require.False(t, info.ContainsKey([]byte("d")))

	require.True(t, FirstMetaInfo.ContainsKey([]byte("anything")))
}

func TestCatalogTables(t *testing.T) {
	require.True(t, RootInfo.IsRoot())
	require.True(t, RootInfo.IsCatalog())
	require.False(t, RootInfo.IsMeta())
	require.True(t, FirstMetaInfo.IsMeta())
	require.False(t, NewInfo("users", nil, nil, 3).IsCatalog())
}

func TestServerNameRoundTrip(t *testing.T) {
	srv := Server{Host: "10.0.0.1", Port: 60020, StartCode: 5}
	require.Equal(t, "10.0.0.1:60020", srv.HostPort())

	parsed, err := ParseServerName(srv.Name())
	require.NoError(t, err)
	require.Equal(t, srv, parsed)

	_, err = ParseServerName("bad")
	require.Error(t, err)
}

func TestServerIncarnations(t *testing.T) {
	a := Server{Host: "h", Port: 1, StartCode: 1}
	b := Server{Host: "h", Port: 1, StartCode: 2}
	require.True(t, a.SameAddress(b))
	require.False(t, a.SameIncarnation(b))
}
