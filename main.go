package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/wordpool/internal/bot"
	"github.com/example/wordpool/internal/database"
	"github.com/example/wordpool/internal/reminder"
	"github.com/example/wordpool/internal/session"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables as-is")
	}

	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	words := database.NewWordRepository()
	progress := database.NewProgressRepository()
	answers := database.NewAnswerHistoryRepository()
	curriculum := database.NewCurriculumRepository()
	users := database.NewUserRepository()

	assembler, err := session.New(words, progress, answers, curriculum, users)
	if err != nil {
		log.Fatalf("Failed to build session assembler: %v", err)
	}

	b, err := bot.New(assembler, users)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	var rem *reminder.Reminder
	if os.Getenv("ENABLE_REMINDER") != "false" {
		rem = reminder.New(b, assembler, users)
		rem.Start()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Println("Bot started. Press Ctrl+C to stop.")
		if err := b.Start(); err != nil {
			log.Printf("Bot error: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down...")
	if rem != nil {
		rem.Stop()
	}
	b.Stop()
}
