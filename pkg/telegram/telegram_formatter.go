package telegram

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang-market-intel/internal/entity"
	"golang-market-intel/internal/pipeline/dto"
)

// FormatSignalMessage formats one persisted signal into a Markdown message
// for Telegram.
func FormatSignalMessage(signal *entity.Signal) string {
	var b strings.Builder

	var directionIcon string
	switch strings.ToLower(signal.Direction) {
	case "bullish":
		directionIcon = "📈"
	case "bearish":
		directionIcon = "📉"
	default:
		directionIcon = "↔️"
	}

	b.WriteString(fmt.Sprintf("%s *New Signal: %s*\n\n", directionIcon, signal.SignalType))
	b.WriteString(fmt.Sprintf("🎯 *Direction:* %s\n", signal.Direction))
	b.WriteString(fmt.Sprintf("💪 *Conviction:* %.0f%%\n", signal.Conviction*100))
	b.WriteString(fmt.Sprintf("⏳ *Horizon:* %s\n", signal.TimeHorizon))

	var instruments []dto.SignalInstrument
	if err := json.Unmarshal(signal.Instruments, &instruments); err == nil && len(instruments) > 0 {
		legs := make([]string, 0, len(instruments))
		for _, inst := range instruments {
			legs = append(legs, fmt.Sprintf("%s %s (%s)", inst.Direction, inst.Symbol, inst.AssetClass))
		}
		b.WriteString(fmt.Sprintf("🧾 *Instruments:* %s\n", strings.Join(legs, ", ")))
	}

	if signal.Thesis != "" {
		b.WriteString(fmt.Sprintf("\n💬 %s\n", signal.Thesis))
	}
	b.WriteString(fmt.Sprintf("\n_Expires %s_", signal.ExpiresAt.Format("2006-01-02 15:04 MST")))

	return b.String()
}
