package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	retired int
}

func (f *fakeConn) Kind() Kind { return KindClient }
func (f *fakeConn) retire()    { f.retired++ }

func TestRegistry_SwapAndRemove(t *testing.T) {
	r := New()
	a, b := &fakeConn{}, &fakeConn{}

	assert.Nil(t, r.Swap("x", a))
	assert.Same(t, a, r.Swap("x", b))

	got, ok := r.Get("x")
	require.True(t, ok)
	assert.Same(t, b, got)

	assert.Same(t, b, r.Remove("x"))
	assert.Nil(t, r.Remove("x"))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_RemoveIf(t *testing.T) {
	r := New()
	old, cur := &fakeConn{}, &fakeConn{}
	r.Swap("x", cur)

	assert.False(t, r.RemoveIf("x", old), "stale owner must not remove replacement")
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.RemoveIf("x", cur))
	assert.False(t, r.RemoveIf("x", cur))
}

func TestRegistry_IDs(t *testing.T) {
	r := New()
	for _, id := range []string{"c", "a", "b"} {
		r.Swap(id, &fakeConn{})
	}
	assert.Equal(t, []string{"a", "b", "c"}, r.IDs())
}

func TestManager_InstallRetiresDisplaced(t *testing.T) {
	m := NewManager(New(), nil)
	first, second := &fakeConn{}, &fakeConn{}

	m.install("x", first)
	m.install("x", second)

	assert.Equal(t, 1, first.retired)
	assert.Equal(t, 0, second.retired)
}

func TestSessionTable(t *testing.T) {
	st := NewSessionTable()
	p1, p2 := &PeerSession{}, &PeerSession{}

	assert.Nil(t, st.swap("10.0.0.2:1", p1))
	assert.Nil(t, st.swap("10.0.0.1:1", p2))
	assert.Equal(t, []string{"10.0.0.1:1", "10.0.0.2:1"}, st.Addrs())

	assert.False(t, st.removeIf("10.0.0.1:1", p1))
	assert.True(t, st.removeIf("10.0.0.1:1", p2))

	drained := st.drain()
	assert.Len(t, drained, 1)
	assert.Equal(t, 0, st.Len())
}
