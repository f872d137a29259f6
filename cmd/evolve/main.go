package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/AndreMoodley/EvolveApp/internal/backend"
	"github.com/AndreMoodley/EvolveApp/internal/config"
	"github.com/AndreMoodley/EvolveApp/internal/domain"
	"github.com/AndreMoodley/EvolveApp/internal/identity"
	"github.com/AndreMoodley/EvolveApp/internal/session"
	"github.com/AndreMoodley/EvolveApp/internal/store"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	idClient := identity.NewClient(cfg.IdentityURL, cfg.APIKey, logger)
	apiClient := backend.NewClient(cfg.BackendURL, logger)
	sup := session.NewSupervisor(session.NewFileStore(cfg.CredentialsFile), logger)
	expenses := store.NewExpenseStore(apiClient, sup, logger)
	vows := store.NewVowStore(apiClient, sup, logger)

	// Reload mirrors on every session change, the same trigger the screens
	// react to.
	sup.Subscribe(func() {
		if _, _, ok := sup.Credentials(); !ok {
			return
		}
		if err := expenses.Reload(ctx); err != nil {
			logger.Warn("expense reload failed", zap.Error(err))
		}
		if err := vows.Reload(ctx); err != nil {
			logger.Warn("vow reload failed", zap.Error(err))
		}
	})

	sup.Bootstrap(ctx, idClient)

	for {
		if _, _, ok := sup.Credentials(); !ok {
			if !signInFlow(ctx, reader, idClient, sup) {
				return
			}
			continue
		}

		fmt.Print("\n[e]xpenses [a]dd-expense [v]ows [n]ew-vow [p]rogressions [l]ogout [q]uit > ")
		choice, _ := reader.ReadString('\n')
		switch strings.TrimSpace(strings.ToLower(choice)) {
		case "e":
			listExpenses(expenses)
		case "a":
			addExpenseFlow(ctx, reader, expenses)
		case "v":
			listVows(vows)
		case "n":
			addVowFlow(ctx, reader, vows)
		case "p":
			progressionFlow(ctx, reader, vows)
		case "l":
			sup.Logout()
			fmt.Println("Signed out.")
		case "q":
			return
		}
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func signInFlow(ctx context.Context, reader *bufio.Reader, idClient *identity.Client, sup *session.Supervisor) bool {
	fmt.Print("\n[s]ign in [u]p [q]uit > ")
	choice, _ := reader.ReadString('\n')
	choice = strings.TrimSpace(strings.ToLower(choice))
	if choice == "q" {
		return false
	}

	email := prompt(reader, "Email: ")
	password := prompt(reader, "Password: ")

	var creds identity.Credentials
	var err error
	if choice == "u" {
		creds, err = idClient.SignUp(ctx, email, password)
	} else {
		creds, err = idClient.SignIn(ctx, email, password)
	}
	if err != nil {
		fmt.Println(err)
		return true
	}

	sup.Authenticate(creds.Token, creds.UserID)
	sup.StoreRefreshToken(creds.RefreshToken)
	sup.ScheduleLogout(creds.ExpiresIn)
	fmt.Println("Signed in.")
	return true
}

func listExpenses(expenses *store.ExpenseStore) {
	all := expenses.Expenses()
	if len(all) == 0 {
		fmt.Println("No expenses yet.")
		return
	}
	for _, e := range all {
		fmt.Printf("%s  %6.1f  %s  %s\n", e.ID, e.Rating, e.Date.Format("2006-01-02"), e.Description)
	}
}

func addExpenseFlow(ctx context.Context, reader *bufio.Reader, expenses *store.ExpenseStore) {
	rating, err := strconv.ParseFloat(prompt(reader, "Rating: "), 64)
	if err != nil {
		fmt.Println("Rating must be a number.")
		return
	}
	description := prompt(reader, "Description: ")

	var workouts []domain.Workout
	for {
		name := prompt(reader, "Workout name (blank to finish): ")
		if name == "" {
			break
		}
		workouts = append(workouts, domain.Workout{
			Name: name,
			Reps: prompt(reader, "  Reps: "),
			RPE:  prompt(reader, "  RPE: "),
		})
	}

	id, err := expenses.AddExpense(ctx, domain.Expense{
		Rating:      rating,
		Date:        time.Now(),
		Description: description,
	}, workouts)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("Saved expense %s.\n", id)
}

func listVows(vows *store.VowStore) {
	all := vows.Vows()
	if len(all) == 0 {
		fmt.Println("No vows yet.")
		return
	}
	for i, v := range all {
		fmt.Printf("[%d] %s (%s, due %s) %s\n", i+1, v.Title, v.Type, v.Date.Format("2006-01-02"), v.ID)
	}
}

func addVowFlow(ctx context.Context, reader *bufio.Reader, vows *store.VowStore) {
	title := prompt(reader, "Title: ")
	description := prompt(reader, "Description: ")
	vowType := domain.VowType(prompt(reader, "Type (major/minor): "))
	date, err := time.Parse("2006-01-02", prompt(reader, "Target date (YYYY-MM-DD): "))
	if err != nil {
		fmt.Println("Use YYYY-MM-DD for the target date.")
		return
	}

	if err := vows.AddVow(ctx, domain.Vow{
		Title:       title,
		Description: description,
		Type:        vowType,
		Date:        date,
	}); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("Vow recorded.")
}

func progressionFlow(ctx context.Context, reader *bufio.Reader, vows *store.VowStore) {
	listVows(vows)
	all := vows.Vows()
	if len(all) == 0 {
		return
	}
	idx, err := strconv.Atoi(prompt(reader, "Vow number: "))
	if err != nil || idx < 1 || idx > len(all) {
		fmt.Println("Invalid selection.")
		return
	}
	vowID := all[idx-1].ID

	if err := vows.LoadProgressions(ctx, vowID); err != nil {
		fmt.Println(err)
		return
	}

	for {
		pending := vows.Pending(vowID)
		completed := vows.Completed(vowID)
		fmt.Printf("\n%d pending, %d completed\n", len(pending), len(completed))
		for _, p := range pending {
			fmt.Printf("  [ ] %s\n", p.Text)
		}
		for _, p := range completed {
			fmt.Printf("  [x] %s\n", p.Text)
		}

		fmt.Print("[a]dd [c]omplete [u]ndo [b]ack > ")
		choice, _ := reader.ReadString('\n')
		switch strings.TrimSpace(strings.ToLower(choice)) {
		case "a":
			text := prompt(reader, "Step: ")
			if err := vows.AddProgression(ctx, vowID, domain.Progression{Text: text}); err != nil {
				fmt.Println(err)
			}
		case "c":
			vows.CompleteProgression(ctx, vowID)
		case "u":
			vows.UndoCompletion(ctx, vowID)
		case "b":
			return
		}
	}
}
