package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"wonderlens/internal/api"
	"wonderlens/internal/conversation"
	"wonderlens/internal/model"
)

var (
	chatSessionID string
	chatContext   string
	chatSpeak     bool
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the guide a question and stream the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "Continue an existing session")
	chatCmd.Flags().StringVar(&chatContext, "about", "", "Name of the object this question is about")
	chatCmd.Flags().BoolVar(&chatSpeak, "speak", false, "Read the answer aloud")
}

func runChat(cmd *cobra.Command, args []string) error {
	if err := requireStore(); err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	message := strings.Join(args, " ")
	sessionID := chatSessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if _, err := reconciler.SaveUserMessage(sessionID, model.MessageText, model.MessageContent{Text: message}); err != nil {
		fmt.Fprintln(os.Stderr, "(your message could not be saved locally)")
	}

	age := 0
	if profile, ok, err := st.GetProfile(); err == nil && ok {
		age = profile.Age
	}

	body, err := client.StartStream(ctx, api.StreamRequest{
		MessageType:           "text",
		Message:               message,
		SessionID:             sessionID,
		IdentificationContext: chatContext,
		UserAge:               age,
		MaxContextRounds:      cfg.Chat.MaxContextRounds,
	})
	if err != nil {
		return fmt.Errorf("could not reach the guide: %w", err)
	}
	defer body.Close()

	var lastLen int
	var finalText string
	err = reconciler.Start(ctx, sessionID, body, conversation.Callbacks{
		OnMessage: func(m model.ConversationMessage) {
			switch m.Type {
			case model.MessageText:
				// Print only the newly streamed tail.
				fmt.Print(m.Content.Text[lastLen:])
				lastLen = len(m.Content.Text)
			case model.MessageCard:
				fmt.Println()
				printCard(*m.Content.Card)
			case model.MessageImage:
				if m.Content.Image.Done {
					fmt.Printf("\n[image] %s\n", m.Content.Image.URL)
				}
			case model.MessageVoice:
				fmt.Printf("[heard] %s\n", m.Content.Voice.Transcript)
			}
		},
		OnProgress: func(p int) {
			fmt.Printf("\r[image %d%%]", p)
		},
		OnDone: func(m model.ConversationMessage) {
			finalText = m.Content.Text
			fmt.Println()
		},
		OnError: func(e error) {
			fmt.Fprintf(os.Stderr, "\nconnection problem: %v\n", e)
		},
	})
	if err != nil {
		return err
	}

	if chatSpeak && finalText != "" {
		evicted := arena.Claim(sessionID)
		defer arena.Release(sessionID)
		select {
		case <-evicted:
		default:
			if err := speaker.Speak(ctx, finalText, cfg.Speech.Language); err != nil {
				fmt.Fprintf(os.Stderr, "read-aloud failed: %v\n", err)
			}
		}
	}

	fmt.Printf("(session %s)\n", sessionID)
	return nil
}
