package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lox/nightfall/internal/client"
	"github.com/lox/nightfall/internal/protocol"
)

// SetupNetworkHandlers registers the event handlers that turn gateway
// messages into log lines and sidebar state.
func SetupNetworkHandlers(wsClient *client.Client, tui *TUIModel) {
	wsClient.AddEventHandler(protocol.MessageTypeWelcome, func(msg *protocol.Message) {
		var data protocol.WelcomeData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		wsClient.SetIdentity(data.PlayerID, data.Name)
		tui.AddLogEntry(fmt.Sprintf("Connected as %s", data.Name))

		tui.notifyMessageCallback(string(protocol.MessageTypeWelcome))
	})

	wsClient.AddEventHandler(protocol.MessageTypeError, func(msg *protocol.Message) {
		var data protocol.ErrorData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		tui.AddLogEntry(fmt.Sprintf("Server error [%s]: %s", data.Code, data.Message))

		tui.notifyMessageCallback(string(protocol.MessageTypeError))
	})

	wsClient.AddEventHandler(protocol.MessageTypeGameCreated, func(msg *protocol.Message) {
		var data protocol.GameCreatedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		// Creating without naming a group adopts the minted handle.
		if wsClient.Group() == "" {
			wsClient.SetGroup(data.Group)
		}
		if wsClient.Group() == data.Group {
			tui.SetGroup(data.Group)
		}

		tui.AddLogEntry(fmt.Sprintf("A game is forming in %s. /join %s to sit down.", data.Group, data.Group))

		tui.notifyMessageCallback(string(protocol.MessageTypeGameCreated))
	})

	wsClient.AddEventHandler(protocol.MessageTypePlayerJoined, func(msg *protocol.Message) {
		var data protocol.PlayerJoinedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		tui.AddPlayer(data.Player.Name)

		if data.Player.ID == wsClient.PlayerID() {
			wsClient.SetGroup(data.Group)
			tui.SetGroup(data.Group)
			tui.AddBoldLogEntry(fmt.Sprintf("You joined %s (%d in the lobby)", data.Group, data.Count))
		} else {
			tui.AddLogEntry(fmt.Sprintf("%s joins %s (%d in the lobby)", data.Player.Name, data.Group, data.Count))
		}

		tui.notifyMessageCallback(string(protocol.MessageTypePlayerJoined))
	})

	wsClient.AddEventHandler(protocol.MessageTypePlayerList, func(msg *protocol.Message) {
		var data protocol.PlayerListData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		tui.AddLogEntry(fmt.Sprintf("Players in %s: %s", data.Group, strings.Join(data.Players, ", ")))

		tui.notifyMessageCallback(string(protocol.MessageTypePlayerList))
	})

	wsClient.AddEventHandler(protocol.MessageTypeStatus, func(msg *protocol.Message) {
		var data protocol.StatusData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		tui.SetGroup(data.Group)
		tui.SetPhase(data.Phase, data.Round)
		if data.Started {
			tui.SyncAlive(data.Alive)
		}
		tui.AddLogEntry(formatStatus(data))

		tui.notifyMessageCallback(string(protocol.MessageTypeStatus))
	})

	wsClient.AddEventHandler(protocol.MessageTypeGameStarted, func(msg *protocol.Message) {
		var data protocol.GameStartedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		tui.AddBoldLogEntry(fmt.Sprintf("The game begins with %d players", data.Count))

		tui.notifyMessageCallback(string(protocol.MessageTypeGameStarted))
	})

	wsClient.AddEventHandler(protocol.MessageTypeRoleAssigned, func(msg *protocol.Message) {
		var data protocol.RoleAssignedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		tui.SetRole(data.Role)
		tui.AddBoldLogEntry(fmt.Sprintf("You are the %s", data.Role))

		tui.notifyMessageCallback(string(protocol.MessageTypeRoleAssigned))
	})

	wsClient.AddEventHandler(protocol.MessageTypeNightStarted, func(msg *protocol.Message) {
		var data protocol.NightStartedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		tui.SetPhase("night", data.Round)
		tui.SetNightMenu(nil)
		tui.AddLogEntry("")
		tui.AddBoldLogEntry(fmt.Sprintf("*** NIGHT %d ***", data.Round))
		tui.AddLogEntry("The group falls asleep.")

		tui.notifyMessageCallback(string(protocol.MessageTypeNightStarted))
	})

	wsClient.AddEventHandler(protocol.MessageTypeNightMenu, func(msg *protocol.Message) {
		var data protocol.NightMenuData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		menu := &NightMenu{Role: data.Role}
		for _, target := range data.Targets {
			menu.Targets = append(menu.Targets, Target{ID: target.ID, Name: target.Name})
		}
		tui.SetNightMenu(menu)

		names := make([]string, len(data.Targets))
		for i, target := range data.Targets {
			names[i] = target.Name
		}
		tui.AddLogEntry(fmt.Sprintf("You wake. Targets: %s", strings.Join(names, ", ")))
		tui.AddLogEntry("Use /pick <name> to choose.")

		tui.notifyMessageCallback(string(protocol.MessageTypeNightMenu))
	})

	wsClient.AddEventHandler(protocol.MessageTypeNightConfirmed, func(msg *protocol.Message) {
		var data protocol.NightConfirmedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		tui.AddLogEntry(fmt.Sprintf("Your %s choice is locked in: %s", data.Role, data.Target.Name))

		tui.notifyMessageCallback(string(protocol.MessageTypeNightConfirmed))
	})

	wsClient.AddEventHandler(protocol.MessageTypeNightResult, func(msg *protocol.Message) {
		var data protocol.NightResultData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		tui.SetPhase("day", tui.round)
		tui.SetNightMenu(nil)
		tui.SyncAlive(data.Alive)

		tui.AddLogEntry("")
		tui.AddBoldLogEntry(fmt.Sprintf("*** DAY %d ***", tui.round))
		for _, line := range formatNightResult(data) {
			tui.AddLogEntry(line)
		}

		tui.notifyMessageCallback(string(protocol.MessageTypeNightResult))
	})

	wsClient.AddEventHandler(protocol.MessageTypeVoteRecorded, func(msg *protocol.Message) {
		var data protocol.VoteRecordedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		tui.AddLogEntry(fmt.Sprintf("%s votes to banish %s (%d/%d)",
			data.Voter.Name, data.Target, data.Cast, data.Needed))

		tui.notifyMessageCallback(string(protocol.MessageTypeVoteRecorded))
	})

	wsClient.AddEventHandler(protocol.MessageTypeVoteResult, func(msg *protocol.Message) {
		var data protocol.VoteResultData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		tui.SetPhase("dusk", tui.round)
		tui.SyncAlive(data.Alive)
		for _, line := range formatVoteResult(data) {
			tui.AddLogEntry(line)
		}

		tui.notifyMessageCallback(string(protocol.MessageTypeVoteResult))
	})

	wsClient.AddEventHandler(protocol.MessageTypeGameEnded, func(msg *protocol.Message) {
		var data protocol.GameEndedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		tui.AddLogEntry("")
		for _, line := range formatGameEnded(data) {
			tui.AddBoldLogEntry(line)
		}
		tui.AddLogEntry("The game is over. /new starts another.")
		tui.ResetGame()

		tui.notifyMessageCallback(string(protocol.MessageTypeGameEnded))
	})
}

// StartCommandHandler starts the command handling loop for the TUI
func StartCommandHandler(wsClient *client.Client, tui *TUIModel) {
	go func() {
		for {
			action, args, shouldContinue, err := tui.WaitForAction()
			if err != nil {
				continue
			}

			if !shouldContinue {
				break
			}

			handleCommand(wsClient, tui, action, args)
		}
	}()
}

// handleCommand processes slash commands typed into the input pane
func handleCommand(wsClient *client.Client, tui *TUIModel, action string, args []string) {
	switch action {
	case "/new":
		group := ""
		if len(args) > 0 {
			group = args[0]
			wsClient.SetGroup(group)
			tui.SetGroup(group)
		} else {
			// Let the gateway mint a handle; game_created adopts it.
			wsClient.SetGroup("")
		}
		sendOrLog(tui, wsClient.NewGame(group))

	case "/join":
		if len(args) == 0 {
			tui.AddLogEntry("Usage: /join <group>")
			return
		}
		group := args[0]
		wsClient.SetGroup(group)
		tui.SetGroup(group)
		sendOrLog(tui, wsClient.JoinGame(group))

	case "/players":
		if !requireGroup(wsClient, tui) {
			return
		}
		sendOrLog(tui, wsClient.ListPlayers(wsClient.Group()))

	case "/status":
		if !requireGroup(wsClient, tui) {
			return
		}
		sendOrLog(tui, wsClient.GameStatus(wsClient.Group()))

	case "/begin":
		if !requireGroup(wsClient, tui) {
			return
		}
		sendOrLog(tui, wsClient.BeginGame(wsClient.Group()))

	case "/night":
		if !requireGroup(wsClient, tui) {
			return
		}
		sendOrLog(tui, wsClient.StartNight(wsClient.Group()))

	case "/day":
		if !requireGroup(wsClient, tui) {
			return
		}
		sendOrLog(tui, wsClient.EndNight(wsClient.Group()))

	case "/pick":
		role, ok := tui.MenuRole()
		if !ok {
			tui.AddLogEntry("Nothing to pick right now")
			return
		}
		if len(args) == 0 {
			tui.AddLogEntry("Usage: /pick <name>")
			return
		}
		name := strings.Join(args, " ")
		target, found := tui.FindTarget(name)
		if !found {
			tui.AddLogEntry(fmt.Sprintf("No such target: %s", name))
			return
		}
		sendOrLog(tui, wsClient.NightAction(role, target.ID))

	case "/vote":
		if !requireGroup(wsClient, tui) {
			return
		}
		if len(args) == 0 {
			tui.AddLogEntry("Usage: /vote <name>")
			return
		}
		sendOrLog(tui, wsClient.Vote(wsClient.Group(), strings.Join(args, " ")))

	case "/help":
		for _, line := range helpLines() {
			tui.AddLogEntry(line)
		}

	case "/quit", "quit":
		tui.SendQuitSignal()

	default:
		tui.AddLogEntry(fmt.Sprintf("Unknown command: %s", action))
		tui.AddLogEntry("Type /help for the command list")
	}
}

// sendOrLog surfaces client send failures in the log
func sendOrLog(tui *TUIModel, err error) {
	if err != nil {
		tui.AddLogEntry(fmt.Sprintf("Error: %v", err))
	}
}

// requireGroup checks the client is in a group before group commands
func requireGroup(wsClient *client.Client, tui *TUIModel) bool {
	if wsClient.Group() == "" {
		tui.AddLogEntry("Join a group first: /new or /join <group>")
		return false
	}
	return true
}

// formatStatus renders a status response as a single log line
func formatStatus(data protocol.StatusData) string {
	if !data.Started {
		return fmt.Sprintf("%s: waiting in the lobby", data.Group)
	}
	return fmt.Sprintf("%s: %s %d • %d alive: %s",
		data.Group, data.Phase, data.Round, len(data.Alive), strings.Join(data.Alive, ", "))
}

// formatNightResult renders the morning announcement
func formatNightResult(data protocol.NightResultData) []string {
	var lines []string

	if data.Victim != nil {
		lines = append(lines, fmt.Sprintf("Dawn breaks. %s was found dead.", data.Victim.Name))
	} else {
		lines = append(lines, "Dawn breaks. Everyone is still alive.")
	}

	if data.Investigation != nil {
		lines = append(lines, fmt.Sprintf("The investigation points at %s: they are a %s.",
			data.Investigation.Target.Name, data.Investigation.Role))
	}

	lines = append(lines, fmt.Sprintf("%d players remain. Discuss and /vote <name>.", len(data.Alive)))
	return lines
}

// formatVoteResult renders the verdict of a day vote
func formatVoteResult(data protocol.VoteResultData) []string {
	var lines []string

	switch {
	case data.Eliminated != nil:
		lines = append(lines, fmt.Sprintf("The group has decided: %s is banished.", data.Eliminated.Name))
	case data.Tie:
		lines = append(lines, "The vote is tied. Nobody is banished.")
	default:
		lines = append(lines, "No votes were cast. Nobody is banished.")
	}

	lines = append(lines, fmt.Sprintf("%d players remain.", len(data.Alive)))
	return lines
}

// formatGameEnded renders the final reveal
func formatGameEnded(data protocol.GameEndedData) []string {
	var lines []string

	switch data.Winner {
	case "good":
		lines = append(lines, "THE VILLAGE WINS: the killer is gone")
	case "evil":
		lines = append(lines, "THE KILLER WINS: the village has fallen")
	default:
		lines = append(lines, fmt.Sprintf("GAME OVER: %s wins", data.Winner))
	}

	for _, reveal := range data.Reveal {
		lines = append(lines, fmt.Sprintf("  %s was the %s", reveal.Player.Name, reveal.Role))
	}

	return lines
}

// helpLines lists the commands the input pane accepts
func helpLines() []string {
	return []string{
		"Commands:",
		"  /new [group]    open a lobby (handle minted if omitted)",
		"  /join <group>   sit down in a lobby",
		"  /players        list who is in the group",
		"  /status         show the game phase",
		"  /begin          deal roles and start the first night",
		"  /pick <name>    choose your night target",
		"  /day            end the night and wake the group",
		"  /vote <name>    vote to banish during the day",
		"  /night          send the group back to sleep after a day",
		"  /quit           leave",
	}
}
