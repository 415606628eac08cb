package host

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybarkan/wagate/internal/events"
	"github.com/ybarkan/wagate/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

func TestSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, testLogger())

	sink.Emit(events.NewStatus(true))
	sink.Emit(events.NewMonitoring(false))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "status", first["type"])
	assert.Equal(t, true, first["connected"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "monitoringStatus", second["type"])
	assert.Equal(t, false, second["monitoring"])
}

func TestSinkTextWireShape(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, testLogger())

	sink.Emit(events.NewText(events.TextBody{
		ID:         "MSG1",
		From:       "123@g.us",
		Author:     "456@c.us",
		Kind:       "text",
		Timestamp:  1700000000,
		Text:       "hi",
		SenderName: "Alice",
	}))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Contains(t, raw, "Text")

	var nested map[string]any
	require.NoError(t, json.Unmarshal(raw["Text"], &nested))
	assert.Equal(t, "hi", nested["Text"])
	assert.Equal(t, "Alice", nested["SenderName"])
	assert.Equal(t, float64(1700000000), nested["Timestamp"])
}

func TestSinkGroupsNeverNull(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, testLogger())

	sink.Emit(events.NewGroups(nil, "rate limited"))
	assert.Contains(t, buf.String(), `"groups":[]`)
	assert.Contains(t, buf.String(), `"error":"rate limited"`)
}

func TestSinkConcurrentEmits(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Emit(events.NewStatus(true))
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 20)
	for _, line := range lines {
		var v map[string]any
		assert.NoError(t, json.Unmarshal([]byte(line), &v), "interleaved write: %q", line)
	}
}

func TestTee(t *testing.T) {
	var a, b bytes.Buffer
	tee := Tee{NewSink(&a, testLogger()), NewSink(&b, testLogger())}

	tee.Emit(events.NewStatus(false))
	assert.Equal(t, a.String(), b.String())
	assert.Contains(t, a.String(), `"connected":false`)
}

func TestReadCommands(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"get_groups"}`,
		``,
		`not json at all`,
		`{"groupId":"no type here"}`,
		`{"type":"monitor_group","groupId":"123@g.us"}`,
		`{"type":"logout"}`,
	}, "\n")

	var got []Command
	ReadCommands(strings.NewReader(input), testLogger(), func(cmd Command) {
		got = append(got, cmd)
	})

	require.Len(t, got, 3, "malformed and empty lines must be skipped")
	assert.Equal(t, CmdGetGroups, got[0].Type)
	assert.Equal(t, CmdMonitorGroup, got[1].Type)
	assert.Equal(t, "123@g.us", got[1].GroupID)
	assert.Equal(t, CmdLogout, got[2].Type)
}

func TestReadCommandsUTF8(t *testing.T) {
	var got []Command
	ReadCommands(strings.NewReader(`{"type":"monitor_group","groupId":"קבוצה@g.us"}`), testLogger(), func(cmd Command) {
		got = append(got, cmd)
	})
	require.Len(t, got, 1)
	assert.Equal(t, "קבוצה@g.us", got[0].GroupID)
}
