package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dncl/intake/internal/core"
	"github.com/dncl/intake/internal/frontend"
)

const defaultServerURL = "http://localhost:4000"

func getConfigPath() string {
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return filepath.Join(cwd, "config.yaml")
}

// loadClientConfig tolerates a missing config file; the client then runs
// against the default local server with in-memory identity storage.
func loadClientConfig() *core.ServiceConfig {
	configPath := getConfigPath()
	config, err := core.LoadConfig(configPath)
	if err != nil {
		log.Printf("no usable config at %s (%v), using defaults", configPath, err)
		config = &core.ServiceConfig{}
	}
	if v := os.Getenv("INTAKE_SERVER_URL"); v != "" {
		config.ServerURL = v
	}
	if config.ServerURL == "" {
		config.ServerURL = defaultServerURL
	}
	return config
}

func newKeyValueStore(config *core.ServiceConfig) frontend.KeyValueStore {
	if config.KeyValue.Address != "" {
		return frontend.NewRedisKeyValueStore(config.KeyValue.Address, config.KeyValue.Password, config.KeyValue.DB)
	}
	log.Printf("no key-value store configured, operator identity will not persist")
	return frontend.NewMemoryKeyValueStore()
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	config := loadClientConfig()
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	gate := frontend.NewOperatorGate(ctx, newKeyValueStore(config), time.Now())
	identity, err := runOperatorGate(ctx, reader, gate)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Printf("Operator: %s (%s)\n", identity.Name, identity.Date)

	// A terminal has no live camera stream; the capability probe selects
	// the picker strategy, a file path prompt.
	controller := frontend.NewController(frontend.Capability{}, nil, newPathPicker(reader), nil)
	session := frontend.NewFormSession()
	submitter := frontend.NewSubmitter(config.ServerURL, nil)

	for {
		if err := runIntake(ctx, reader, controller, session, submitter, identity); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
		if !promptYesNo(reader, "Intake another device?") {
			return
		}
	}
}

func runOperatorGate(ctx context.Context, reader *bufio.Reader, gate *frontend.OperatorGate) (frontend.OperatorIdentity, error) {
	prefill := gate.Prefill()
	fmt.Println("=== Operator Confirmation ===")
	fmt.Printf("Date (today): %s\n", prefill.Date)

	for {
		prompt := "Operator name"
		if prefill.Name != "" {
			prompt += fmt.Sprintf(" [%s]", prefill.Name)
		}
		input := promptLine(reader, prompt+" (q to quit): ")

		if strings.EqualFold(strings.TrimSpace(input), "q") {
			gate.Dismiss()
			return frontend.OperatorIdentity{}, frontend.ErrGateBlocked
		}
		if strings.TrimSpace(input) == "" {
			input = prefill.Name
		}

		identity, err := gate.Confirm(ctx, input)
		if errors.Is(err, frontend.ErrNameRequired) {
			fmt.Println(err)
			continue
		}
		return identity, err
	}
}

func runIntake(ctx context.Context, reader *bufio.Reader, controller *frontend.Controller,
	session *frontend.FormSession, submitter *frontend.Submitter, identity frontend.OperatorIdentity) error {

	fmt.Println("=== Device Intake ===")
	session.SetTrackingNumber(promptLine(reader, "Tracking number: "))

	if err := captureInto(ctx, reader, controller, session, frontend.PrimaryFront, "Tracking and Front of Device"); err != nil {
		return err
	}
	if err := captureInto(ctx, reader, controller, session, frontend.PrimaryBack, "Tracking and Back of Device"); err != nil {
		return err
	}

	for session.DetailCount() < frontend.MaxDetailEntries {
		if !promptYesNo(reader, "Add a detail photo/note?") {
			break
		}
		session.AddDetail()
		index := session.DetailCount() - 1

		artifact, err := controller.Acquire(ctx, fmt.Sprintf("Detail %d", index+1))
		switch {
		case errors.Is(err, frontend.ErrCaptureCanceled):
			// Note-only entry.
		case err != nil:
			fmt.Printf("Capture failed: %v\n", err)
		default:
			_ = session.SetDetailImage(index, artifact)
		}
		_ = session.SetDetailNote(index, promptLine(reader, "Note: "))
	}

	receipt, err := submitter.Submit(ctx, session, identity)
	if err != nil {
		// The session keeps its contents; the operator can fix and resubmit.
		return err
	}
	fmt.Printf("Submitted successfully, session %s\n", receipt.Session.ID)
	return nil
}

// captureInto fills one primary slot. An occupied slot offers a retake;
// accepting clears the slot before reacquiring, declining keeps the image.
func captureInto(ctx context.Context, reader *bufio.Reader, controller *frontend.Controller,
	session *frontend.FormSession, slot frontend.PrimarySlot, label string) error {

	if session.PrimaryImage(slot) != nil {
		if !promptYesNo(reader, fmt.Sprintf("%s: already captured, retake?", label)) {
			return nil
		}
		if err := session.SetPrimaryImage(slot, nil); err != nil {
			return err
		}
	}

	artifact, err := controller.Acquire(ctx, label)
	if errors.Is(err, frontend.ErrCaptureCanceled) {
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s: captured %s (%d bytes)\n", label, artifact.Filename, artifact.Size())
	return session.SetPrimaryImage(slot, artifact)
}

// newPathPicker is the terminal's stand-in for a platform image picker:
// it asks for a file path and leaves an empty line as cancellation.
func newPathPicker(reader *bufio.Reader) *frontend.FilePicker {
	return &frontend.FilePicker{
		Prompt: func(ctx context.Context, accept []string) (string, error) {
			path := promptLine(reader, fmt.Sprintf("Image file path (%s, empty to skip): ", strings.Join(accept, ", ")))
			if strings.TrimSpace(path) == "" {
				return "", frontend.ErrCaptureCanceled
			}
			return strings.TrimSpace(path), nil
		},
	}
}

func promptLine(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptYesNo(reader *bufio.Reader, prompt string) bool {
	answer := promptLine(reader, prompt+" (y/N): ")
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}
