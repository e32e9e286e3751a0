// Package main provides the memctl CLI for inspecting and maintaining
// the memory store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/edforge/mentor/internal/config"
	"github.com/edforge/mentor/internal/memory"
	"github.com/edforge/mentor/internal/repository"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "migrate":
		migrateCmd()
	case "profile":
		profileCmd(os.Args[2:])
	case "strategies":
		strategiesCmd(os.Args[2:])
	case "history":
		historyCmd(os.Args[2:])
	case "sessions":
		sessionsCmd(os.Args[2:])
	case "fact":
		factCmd(os.Args[2:])
	case "consolidate":
		consolidateCmd(os.Args[2:])
	case "version":
		fmt.Printf("memctl v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`memctl - memory store inspection and maintenance CLI

Usage:
  memctl <command> [flags]

Commands:
  migrate      Create or update the memories and messages tables
  profile      Show a user's semantic profile
  strategies   Show a user's effective teaching strategies
  history      Show a user's recent episodes
  sessions     Show a user's sessions from the last 30 days
  fact         Store a fact about a user
  consolidate  Consolidate a session's working memory
  version      Show version information
  help         Show this help message

Examples:
  memctl migrate
  memctl profile --user alice
  memctl strategies --user alice --min-rate 0.7
  memctl history --user alice --limit 10 --days 7
  memctl fact --user alice --category interest --fact "enjoys astronomy"
  memctl consolidate --user alice --session 6f1c...`)
}

func openStore(ctx context.Context) *repository.Store {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	store, err := repository.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return store
}

func migrateCmd() {
	ctx := context.Background()
	store := openStore(ctx)
	defer store.Close()

	if err := store.AutoMigrate(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	fmt.Println("Migration complete.")
}

func profileCmd(args []string) {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	user := fs.String("user", "default", "user id")
	_ = fs.Parse(args)

	ctx := context.Background()
	store := openStore(ctx)
	defer store.Close()

	semantic := memory.NewSemanticMemory(store.Records, *user)
	profile, err := semantic.UserProfile(ctx)
	if err != nil {
		log.Fatalf("failed to load profile: %v", err)
	}
	if profile.IsEmpty() {
		fmt.Printf("No profile data for user %q.\n", *user)
		return
	}

	fmt.Printf("Profile for %s:\n", *user)
	if len(profile.LearningStyle) > 0 {
		fmt.Printf("  Learning style: %s\n", strings.Join(profile.LearningStyle, ", "))
	}
	for subject, level := range profile.Proficiencies {
		fmt.Printf("  Proficiency:    %s: %s\n", subject, level)
	}
	for _, interest := range profile.Interests {
		fmt.Printf("  Interest:       %s\n", interest)
	}
	for _, challenge := range profile.Challenges {
		fmt.Printf("  Challenge:      %s\n", challenge)
	}
	for pref, value := range profile.Preferences {
		fmt.Printf("  Preference:     %s = %v\n", pref, value)
	}
	for _, fact := range profile.RawFacts {
		fmt.Printf("  Fact:           %s\n", fact)
	}
}

func strategiesCmd(args []string) {
	fs := flag.NewFlagSet("strategies", flag.ExitOnError)
	user := fs.String("user", "default", "user id")
	procType := fs.String("type", "", "procedure type filter")
	minRate := fs.Float64("min-rate", 0, "minimum success rate (0 uses the default)")
	_ = fs.Parse(args)

	ctx := context.Background()
	store := openStore(ctx)
	defer store.Close()

	procedural := memory.NewProceduralMemory(store.Records, *user)
	strategies, err := procedural.EffectiveStrategies(ctx, *procType, *minRate)
	if err != nil {
		log.Fatalf("failed to load strategies: %v", err)
	}
	if len(strategies) == 0 {
		fmt.Printf("No effective strategies recorded for user %q.\n", *user)
		return
	}

	for i, s := range strategies {
		fmt.Printf("%2d. %s (rate %.2f, used %d, type %s)\n", i+1, s.Description, s.SuccessRate, s.UseCount, s.Type)
	}
}

func historyCmd(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	user := fs.String("user", "default", "user id")
	limit := fs.Int("limit", 10, "maximum episodes")
	days := fs.Int("days", 0, "restrict to the last N days (0 = no limit)")
	_ = fs.Parse(args)

	ctx := context.Background()
	store := openStore(ctx)
	defer store.Close()

	episodic := memory.NewEpisodicMemory(store.Records, *user)
	episodes, err := episodic.RecallEpisodes(ctx, "", *limit, *days)
	if err != nil {
		log.Fatalf("failed to recall episodes: %v", err)
	}
	if len(episodes) == 0 {
		fmt.Printf("No episodes recorded for user %q.\n", *user)
		return
	}

	for _, ep := range episodes {
		fmt.Printf("[%s] (%s) %s\n", ep.CreatedAt.Format("2006-01-02 15:04"), ep.Importance, ep.Content)
	}
}

func sessionsCmd(args []string) {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	user := fs.String("user", "default", "user id")
	limit := fs.Int("limit", 10, "maximum episodes to group")
	_ = fs.Parse(args)

	ctx := context.Background()
	store := openStore(ctx)
	defer store.Close()

	manager := memory.NewManager(store.Records, store.Messages, *user, "")
	sessions := manager.CrossSessionContext(ctx, "", *limit)
	if len(sessions) == 0 {
		fmt.Printf("No sessions in the last 30 days for user %q.\n", *user)
		return
	}

	for _, s := range sessions {
		fmt.Printf("session %s (last activity %s):\n", s.SessionID, s.MostRecent.Format("2006-01-02 15:04"))
		for _, ep := range s.Episodes {
			fmt.Printf("  - %s\n", ep.Content)
		}
	}
}

func factCmd(args []string) {
	fs := flag.NewFlagSet("fact", flag.ExitOnError)
	user := fs.String("user", "default", "user id")
	category := fs.String("category", "general", "fact category")
	fact := fs.String("fact", "", "the fact statement")
	confidence := fs.Float64("confidence", 0, "confidence 0-1 (0 uses the default)")
	_ = fs.Parse(args)

	if *fact == "" {
		log.Fatal("--fact is required")
	}

	ctx := context.Background()
	store := openStore(ctx)
	defer store.Close()

	semantic := memory.NewSemanticMemory(store.Records, *user)
	id := semantic.StoreFact(ctx, *category, *fact, *confidence, "memctl")
	fmt.Printf("Stored fact %s.\n", id)
}

func consolidateCmd(args []string) {
	fs := flag.NewFlagSet("consolidate", flag.ExitOnError)
	user := fs.String("user", "default", "user id")
	session := fs.String("session", "", "session id")
	_ = fs.Parse(args)

	if *session == "" {
		log.Fatal("--session is required")
	}

	ctx := context.Background()
	store := openStore(ctx)
	defer store.Close()

	manager := memory.NewManager(store.Records, store.Messages, *user, *session)
	manager.Consolidate(ctx)
	fmt.Printf("Session %s consolidated.\n", *session)
}
