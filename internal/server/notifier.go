package server

import (
	"fmt"

	"github.com/lox/nightfall/internal/game"
	"github.com/lox/nightfall/internal/protocol"
)

// eventNotifier adapts session events onto the wire: broadcast events go to
// every connection watching the group, private events go to the recipient's
// connection alone. Notify only enqueues onto per-connection send buffers,
// so it is safe to call under the session lock.
type eventNotifier struct {
	server *Server
}

// Notify implements game.Notifier.
func (n *eventNotifier) Notify(ev game.GameEvent) error {
	msg, err := messageFromEvent(ev)
	if err != nil {
		return err
	}

	if private, ok := ev.(game.PrivateEvent); ok {
		return n.server.SendToPlayer(private.Recipient().ID, msg)
	}

	n.server.BroadcastToGroup(ev.Group(), msg)
	return nil
}

// messageFromEvent builds the wire message for a session event.
func messageFromEvent(ev game.GameEvent) (*protocol.Message, error) {
	switch e := ev.(type) {
	case game.GameCreatedEvent:
		return protocol.NewMessage(protocol.MessageTypeGameCreated, protocol.GameCreatedData{
			Group: e.Group(),
		})

	case game.PlayerJoinedEvent:
		return protocol.NewMessage(protocol.MessageTypePlayerJoined, protocol.PlayerJoinedData{
			Group:  e.Group(),
			Player: playerRef(e.Player),
			Count:  e.Count,
		})

	case game.GameStartedEvent:
		return protocol.NewMessage(protocol.MessageTypeGameStarted, protocol.GameStartedData{
			Group: e.Group(),
			Count: e.Count,
		})

	case game.RoleAssignedEvent:
		return protocol.NewMessage(protocol.MessageTypeRoleAssigned, protocol.RoleAssignedData{
			Group: e.Group(),
			Role:  e.Role.String(),
		})

	case game.NightStartedEvent:
		return protocol.NewMessage(protocol.MessageTypeNightStarted, protocol.NightStartedData{
			Group: e.Group(),
			Round: e.Round,
		})

	case game.NightPromptEvent:
		return protocol.NewMessage(protocol.MessageTypeNightMenu, protocol.NightMenuData{
			Group:   e.Group(),
			Role:    e.Slot.String(),
			Targets: playerRefs(e.Targets),
		})

	case game.NightConfirmedEvent:
		return protocol.NewMessage(protocol.MessageTypeNightConfirmed, protocol.NightConfirmedData{
			Group:  e.Group(),
			Role:   e.Slot.String(),
			Target: playerRef(e.Target),
		})

	case game.NightResultEvent:
		data := protocol.NightResultData{
			Group:  e.Group(),
			Victim: optionalRef(e.Victim),
			Alive:  playerNames(e.Alive),
		}
		if e.Investigation != nil {
			data.Investigation = &protocol.InvestigationData{
				Target: playerRef(e.Investigation.Target),
				Role:   e.Investigation.Role.String(),
			}
		}
		return protocol.NewMessage(protocol.MessageTypeNightResult, data)

	case game.VoteRecordedEvent:
		return protocol.NewMessage(protocol.MessageTypeVoteRecorded, protocol.VoteRecordedData{
			Group:  e.Group(),
			Voter:  playerRef(e.Voter),
			Target: e.TargetName,
			Cast:   e.Cast,
			Needed: e.Needed,
		})

	case game.VoteResultEvent:
		return protocol.NewMessage(protocol.MessageTypeVoteResult, protocol.VoteResultData{
			Group:      e.Group(),
			Eliminated: optionalRef(e.Eliminated),
			Tie:        e.Tie,
			Alive:      playerNames(e.Alive),
		})

	case game.GameEndedEvent:
		reveal := make([]protocol.RoleRevealData, len(e.Reveal))
		for i, rr := range e.Reveal {
			reveal[i] = protocol.RoleRevealData{
				Player: playerRef(rr.Player),
				Role:   rr.Role.String(),
			}
		}
		return protocol.NewMessage(protocol.MessageTypeGameEnded, protocol.GameEndedData{
			Group:  e.Group(),
			Winner: e.Winner.String(),
			Reveal: reveal,
		})

	default:
		return nil, fmt.Errorf("no wire mapping for event: %s", ev.EventType())
	}
}

func playerRef(p game.Player) protocol.PlayerRef {
	return protocol.PlayerRef{ID: p.ID, Name: p.Name}
}

func optionalRef(p *game.Player) *protocol.PlayerRef {
	if p == nil {
		return nil
	}
	ref := playerRef(*p)
	return &ref
}

func playerRefs(players []game.Player) []protocol.PlayerRef {
	refs := make([]protocol.PlayerRef, len(players))
	for i, p := range players {
		refs[i] = playerRef(p)
	}
	return refs
}

func playerNames(players []game.Player) []string {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	return names
}
