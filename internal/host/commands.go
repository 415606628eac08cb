package host

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/ybarkan/wagate/internal/logging"
)

// Command types accepted from the host.
const (
	CmdGetGroups      = "get_groups"
	CmdMonitorGroup   = "monitor_group"
	CmdStopMonitoring = "stop_monitoring"
	CmdLogout         = "logout"
)

// Command is one line-delimited JSON command from the host.
type Command struct {
	Type    string `json:"type"`
	GroupID string `json:"groupId,omitempty"`
}

// ReadCommands consumes line-delimited JSON commands from r until EOF,
// invoking handle for each parsed command. Malformed lines are logged and
// skipped; they never crash the process.
func ReadCommands(r io.Reader, log *logging.Logger, handle func(Command)) {
	log = log.Sub("commands")
	scanner := bufio.NewScanner(r)
	// commands are tiny, but keep headroom for future payloads
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var cmd Command
		if err := json.Unmarshal([]byte(line), &cmd); err != nil {
			log.Warn().Err(err).Str("line", line).Msg("ignoring malformed command")
			continue
		}
		if cmd.Type == "" {
			log.Warn().Str("line", line).Msg("ignoring command without type")
			continue
		}

		log.Debug().Str("type", cmd.Type).Msg("command received")
		handle(cmd)
	}

	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msg("command stream error")
		return
	}
	log.Info().Msg("command stream ended")
}
