package bot

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"
)

type CommandDefinition struct {
	Command     string
	Description string
}

// Commands is the central command list used for registration with
// Telegram and for the /help text.
var Commands = []CommandDefinition{
	{Command: "start", Description: "Start the bot"},
	{Command: "help", Description: "Show help information"},
	{Command: "history", Description: "Ask questions about past conversations"},
}

func CommandsHelpText() string {
	lines := make([]string, 0, len(Commands))
	for _, cmd := range Commands {
		lines = append(lines, fmt.Sprintf("/%s - %s", cmd.Command, cmd.Description))
	}
	return strings.Join(lines, "\n")
}

func BotCommands() []models.BotCommand {
	out := make([]models.BotCommand, 0, len(Commands))
	for _, cmd := range Commands {
		out = append(out, models.BotCommand{Command: cmd.Command, Description: cmd.Description})
	}
	return out
}
