package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"fleet-coordinator/internal/config"
	"fleet-coordinator/internal/repository"
	"fleet-coordinator/pkg/database"
)

// Deletes every user document, bootstrap admins included; run
// 'server -seed' afterwards to restore them. Meant for resetting staging
// environments, never production.
func main() {
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	cfg := config.Load()

	db, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Disconnect()

	userRepo := repository.NewUserRepository(db.Database)

	total, err := userRepo.Count()
	if err != nil {
		log.Fatal("Failed to count users:", err)
	}

	if !*yes {
		fmt.Printf("This will delete %d user documents. Type 'purge' to continue: ", total)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.TrimSpace(answer) != "purge" {
			fmt.Println("Aborted")
			return
		}
	}

	// Note which bootstrap admins are about to go, for the re-seed reminder.
	var wiped []string
	for _, email := range cfg.BootstrapAdmins {
		if user, err := userRepo.FindByEmail(email); err == nil {
			wiped = append(wiped, user.Email)
		}
	}

	deleted, err := userRepo.DeleteAll()
	if err != nil {
		log.Fatal("Failed to purge users:", err)
	}

	log.Printf("Deleted %d user documents", deleted)
	if len(wiped) > 0 {
		log.Printf("Re-seed bootstrap admins with 'server -seed': %s", strings.Join(wiped, ", "))
	}
}
