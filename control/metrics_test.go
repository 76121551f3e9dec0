package control

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelemetryCounts(t *testing.T) {
	tel := NewTelemetry()
	assert.Zero(t, tel.Value(DiscordMsgFail))

	tel.Inc(DiscordMsgFail)
	tel.Counter(DiscordMsgFail).Inc()
	assert.Equal(t, uint64(2), tel.Value(DiscordMsgFail))

	snap := tel.Snapshot()
	assert.Equal(t, uint64(2), snap[DiscordMsgFail])
	assert.Contains(t, snap, RelayBuffered)
	assert.Contains(t, snap, TwitterRetweet)

	families, err := tel.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestTelemetryRegistersUnknownNamesOnce(t *testing.T) {
	tel := NewTelemetry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tel.Inc("custom_event")
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(8), tel.Value("custom_event"))
}

func TestTelemetryInstancesAreIndependent(t *testing.T) {
	a, b := NewTelemetry(), NewTelemetry()
	a.Inc(DiscordShutdown)
	assert.Equal(t, uint64(1), a.Value(DiscordShutdown))
	assert.Zero(t, b.Value(DiscordShutdown))
}

func TestTelemetryHandler(t *testing.T) {
	tel := NewTelemetry()
	tel.Inc(DiscordConnected)

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "relaybot_discord_connected_total 1"))
}

func TestScope(t *testing.T) {
	tel := NewTelemetry()

	func() {
		s := tel.Begin(DiscordCmdCount)
		defer s.Done()
	}()
	assert.Equal(t, uint64(1), tel.Value(DiscordCmdCount))

	func() {
		s := tel.Begin(DiscordCmdCount)
		defer s.Done()
		s.Cancel()
	}()
	assert.Equal(t, uint64(1), tel.Value(DiscordCmdCount))

	s := tel.Begin(DiscordCmdCount)
	s.Done()
	s.Done()
	assert.Equal(t, uint64(2), tel.Value(DiscordCmdCount))
}

func TestScopeRecordsOnPanic(t *testing.T) {
	tel := NewTelemetry()
	func() {
		defer func() { _ = recover() }()
		s := tel.Begin(DiscordFailure)
		defer s.Done()
		panic("boom")
	}()
	assert.Equal(t, uint64(1), tel.Value(DiscordFailure))
}

func TestDebugProbes(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("answer", func() any { return 42 })
	state := dp.DumpState()
	assert.Equal(t, 42, state["answer"])
	assert.Contains(t, state, "runtime.cpus")
}
