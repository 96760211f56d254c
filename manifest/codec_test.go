package manifest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/ids"
)

func testDeviceID(t *testing.T) ids.DeviceID {
	t.Helper()
	id, err := ids.NewDeviceID("alice@laptop")
	require.NoError(t, err)
	return id
}

func testEntryName(t *testing.T, raw string) ids.EntryName {
	t.Helper()
	n, err := ids.NewEntryName(raw)
	require.NoError(t, err)
	return n
}

func TestLocalManifestRoundTrip(t *testing.T) {
	author := testDeviceID(t)
	a, err := access.New()
	require.NoError(t, err)

	cases := []struct {
		name string
		m    Local
	}{
		{"file", func() Local {
			f := NewFile(author)
			f.Size = 42
			f.Blocks = []BlockAccess{{Access: a, Offset: 0, Size: 42, Digest: "deadbeef"}}
			return f
		}()},
		{"folder", func() Local {
			f := NewFolder(author)
			f.Children = map[ids.EntryName]access.Access{testEntryName(t, "a.txt"): a}
			return f
		}()},
		{"workspace", func() Local {
			creator, err := ids.NewUserID("alice")
			require.NoError(t, err)
			return NewWorkspace(author, creator)
		}()},
		{"user", func() Local {
			u := NewUser(author)
			u.LastProcessedMessage = 7
			return u
		}()},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			blob, err := StandardCodec.EncodeLocal(c.m)
			require.NoError(t, err)
			got, err := StandardCodec.DecodeLocal(blob)
			require.NoError(t, err)
			if diff := cmp.Diff(c.m, got, cmp.Comparer(func(a, b access.Access) bool {
				return a.ID() == b.ID() && a.Key() == b.Key()
			})); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeLocalRejectsUnknownFormat(t *testing.T) {
	_, err := StandardCodec.DecodeLocal([]byte(`{"format":99,"type":"local_file_manifest"}`))
	require.Error(t, err)
}

func TestDecodeLocalRejectsUnknownType(t *testing.T) {
	_, err := StandardCodec.DecodeLocal([]byte(`{"format":1,"type":"not_a_thing"}`))
	require.Error(t, err)
}

func TestDecodeLocalToleratesUnknownFields(t *testing.T) {
	author := testDeviceID(t)
	u := NewUser(author)
	blob, err := StandardCodec.EncodeLocal(u)
	require.NoError(t, err)
	withExtra := append(blob[:len(blob)-1], []byte(`,"totally_new_field":123}`)...)
	_, err = StandardCodec.DecodeLocal(withExtra)
	require.NoError(t, err)
}

func TestRemoteManifestRoundTrip(t *testing.T) {
	author := testDeviceID(t)
	f := NewFile(author)
	f.Size = 10
	remote := f.ToRemote()
	blob, err := StandardCodec.EncodeRemote(remote)
	require.NoError(t, err)
	got, err := StandardCodec.DecodeRemote(blob)
	require.NoError(t, err)
	if diff := cmp.Diff(remote, got, cmp.AllowUnexported(RemoteFile{})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestToLocalToRemoteRoundTrip(t *testing.T) {
	author := testDeviceID(t)
	u := NewUser(author)
	u.LastProcessedMessage = 3
	synced := u.MarkSynced(5)
	remote := synced.ToRemote()
	back := remote.ToLocal()
	require.Equal(t, remote.LastProcessedMessage, back.LastProcessedMessage)
	require.False(t, back.NeedSync)
	require.False(t, back.IsPlaceholder)
	require.Equal(t, uint32(5), back.BaseVersion)
}
