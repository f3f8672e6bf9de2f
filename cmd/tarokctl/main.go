package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"tarok/internal/bot"
	"tarok/internal/domain"
)

func main() {
	playersFlag := flag.Int("players", 4, "table size, 3 or 4")
	seedFlag := flag.Int64("seed", 0, "deal seed, 0 picks one from the clock")
	policiesFlag := flag.String("policies", "eager,passive,passive,passive", "comma separated bot policy per seat")
	countFlag := flag.String("count", "", "comma separated card names to count instead of dealing")
	flag.Parse()

	logger := slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))

	if *countFlag != "" {
		if err := countCards(*countFlag); err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
		return
	}

	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	agents, err := agentsFromFlag(*policiesFlag, *playersFlag)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(2)
	}

	state, err := domain.NewGame(*playersFlag, seed)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(2)
	}
	if err := state.ApplyAction(domain.DealAction); err != nil {
		logger.Error("deal failed", "error", err)
		os.Exit(1)
	}

	pterm.DefaultHeader.WithFullWidth().Printfln("Tarok deal for %d players, seed %d", state.NumPlayers(), seed)
	if err := printDeal(state); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	if err := runBidding(state, agents, logger); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func agentsFromFlag(value string, players int) ([]*bot.Agent, error) {
	names := strings.Split(value, ",")
	agents := make([]*bot.Agent, 0, players)
	for seat := 0; seat < players; seat++ {
		name := ""
		if seat < len(names) {
			name = strings.TrimSpace(names[seat])
		}
		policy, err := bot.NewPolicy(name)
		if err != nil {
			return nil, err
		}
		if name == "" {
			name = bot.PolicyPassive
		}
		agents = append(agents, &bot.Agent{ID: fmt.Sprintf("seat-%d", seat), Name: fmt.Sprintf("Seat %d (%s)", seat, name), Policy: policy})
	}
	return agents, nil
}

func printDeal(state *domain.GameState) error {
	talonPoints, err := domain.CardPoints(state.TalonIDs(), state.Deck())
	if err != nil {
		return err
	}
	talon := pterm.DefaultBox.WithTitle(pterm.LightYellow("|TALON|")).WithTitleTopCenter().
		WithLeftPadding(2).WithRightPadding(2).
		Sprintf("%s\n%d points", strings.Join(state.Talon(), " - "), talonPoints)
	pterm.Println(talon)

	data := pterm.TableData{{"Seat", "Cards", "Tarok", "Points"}}
	for seat := 0; seat < state.NumPlayers(); seat++ {
		ids, err := state.HandIDs(seat)
		if err != nil {
			return err
		}
		cards, err := state.PlayerCards(seat)
		if err != nil {
			return err
		}
		points, err := domain.CardPoints(ids, state.Deck())
		if err != nil {
			return err
		}
		hasTarok := pterm.LightGreen("yes")
		if !domain.HandHasTarok(ids, state.Deck()) {
			hasTarok = pterm.LightRed("no")
		}
		data = append(data, []string{fmt.Sprint(seat), strings.Join(cards, ", "), hasTarok, fmt.Sprint(points)})
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}

func runBidding(state *domain.GameState, agents []*bot.Agent, logger *slog.Logger) error {
	pterm.DefaultSection.Println("Bidding")

	for state.Phase() == domain.PhaseBidding || state.Phase() == domain.PhaseKingCalling {
		seat := state.CurrentActor()
		agent := agents[seat]
		action, ok, err := agent.Play(state, seat)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		label := state.ActionToString(seat, action)
		if err := state.ApplyAction(action); err != nil {
			return fmt.Errorf("%s: %w", agent.Name, err)
		}
		pterm.Info.Printfln("%s: %s", pterm.LightCyan(agent.Name), label)
	}

	contract, ok := state.Contract()
	if !ok {
		return fmt.Errorf("bidding did not conclude, phase %s", state.Phase())
	}
	summary := fmt.Sprintf("Contract: %s\n", contract.Name)
	if declarer := state.Declarer(); declarer != domain.NoSeat {
		summary += fmt.Sprintf("Declarer: %s\n", agents[declarer].Name)
	} else {
		summary += "Declarer: none\n"
	}
	if king := state.CalledKing(); king != domain.NoCard {
		summary += fmt.Sprintf("Called king: %s (partner seat %d)\n", state.ActionToString(state.Declarer(), king), state.Partner())
	}
	summary += fmt.Sprintf("Next phase: %s", state.Phase())
	pterm.Println(pterm.DefaultBox.WithTitle(pterm.LightGreen("|RESULT|")).WithTitleTopCenter().Sprint(summary))

	logger.Debug("hand stopped", "phase", string(state.Phase()), "history", fmt.Sprint(state.History()))
	return nil
}

func countCards(value string) error {
	names := strings.Split(value, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	ids, err := domain.ResolveCardsByName(names, domain.DefaultDeck)
	if err != nil {
		return err
	}
	points, err := domain.CardPoints(ids, domain.DefaultDeck)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("%d cards worth %d points", len(ids), points)
	return nil
}
