package ephemeral

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStoreExpiry(t *testing.T) {
	s := NewStore[string](10*time.Minute, time.Hour)
	defer s.Close()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	s.Put("k", "v")

	got, ok := s.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", got)

	// Just inside the TTL.
	s.SetClock(func() time.Time { return now.Add(9 * time.Minute) })
	_, ok = s.Get("k")
	require.True(t, ok)

	// Past the TTL the entry is treated as absent even before a sweep.
	s.SetClock(func() time.Time { return now.Add(11 * time.Minute) })
	_, ok = s.Get("k")
	require.False(t, ok)

	s.Sweep()
	require.Equal(t, 0, s.Len())
}

func TestStorePutOverwrites(t *testing.T) {
	s := NewStore[int](time.Minute, time.Hour)
	defer s.Close()

	s.Put("k", 1)
	s.Put("k", 2)

	got, ok := s.Get("k")
	require.True(t, ok)
	require.Equal(t, 2, got)
	require.Equal(t, 1, s.Len())
}

func TestStoreUpdateSeesExpiredAsAbsent(t *testing.T) {
	s := NewStore[int](time.Minute, time.Hour)
	defer s.Close()

	now := time.Now()
	s.SetClock(func() time.Time { return now })
	s.Put("k", 7)

	s.SetClock(func() time.Time { return now.Add(2 * time.Minute) })

	called := false
	s.Update("k", func(cur int, ok bool) (int, bool) {
		called = true
		require.False(t, ok)
		require.Zero(t, cur)
		return 0, false
	})
	require.True(t, called)
}

func TestStoreUpdateAtomicSingleWinner(t *testing.T) {
	s := NewStore[string](time.Minute, time.Hour)
	defer s.Close()

	// Many goroutines race a compare-and-set that should only succeed when
	// the key is absent. Exactly one may win.
	const n = 32
	var wg sync.WaitGroup
	wins := make(chan string, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		who := string(rune('a' + i%26))
		go func() {
			defer wg.Done()
			won := s.Update("ticket", func(cur string, ok bool) (string, bool) {
				if ok {
					return cur, false
				}
				return who, true
			})
			if won {
				wins <- who
			}
		}()
	}

	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1)

	got, ok := s.Get("ticket")
	require.True(t, ok)
	require.Equal(t, winners[0], got)
}

func TestStoreDeleteIdempotent(t *testing.T) {
	s := NewStore[int](time.Minute, time.Hour)
	defer s.Close()

	s.Delete("missing")
	s.Put("k", 1)
	s.Delete("k")
	s.Delete("k")

	_, ok := s.Get("k")
	require.False(t, ok)
}
