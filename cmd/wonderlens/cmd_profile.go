package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wonderlens/internal/model"
)

var profileGrade string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the explorer's profile",
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set <age>",
	Short: "Set the explorer's age (3-18)",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSet,
}

var profileClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the profile",
	RunE:  runProfileClear,
}

var settingsLanguage string

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or update app settings",
	RunE:  runSettings,
}

func init() {
	profileSetCmd.Flags().StringVar(&profileGrade, "grade", "", "School grade")
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileClearCmd)

	settingsCmd.Flags().StringVar(&settingsLanguage, "language", "", "Card language: zh or en")
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	if err := requireStore(); err != nil {
		return err
	}
	profile, ok, err := st.GetProfile()
	if err != nil {
		return fmt.Errorf("could not read profile: %w", err)
	}
	if !ok {
		fmt.Println("No profile yet. Set one with: wonderlens profile set <age>")
		return nil
	}
	fmt.Printf("Age: %d\n", profile.Age)
	if profile.Grade != "" {
		fmt.Printf("Grade: %s\n", profile.Grade)
	}
	fmt.Printf("Updated: %s\n", profile.LastUpdated.Format("2006-01-02"))
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	if err := requireStore(); err != nil {
		return err
	}
	age, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("age must be a number: %w", err)
	}
	profile := model.UserProfile{Age: age, Grade: profileGrade}
	if err := st.SaveProfile(profile); err != nil {
		return fmt.Errorf("could not save profile: %w", err)
	}
	fmt.Printf("Profile saved: age %d.\n", age)
	return nil
}

func runProfileClear(cmd *cobra.Command, args []string) error {
	if err := requireStore(); err != nil {
		return err
	}
	if err := st.ClearProfile(); err != nil {
		return fmt.Errorf("could not clear profile: %w", err)
	}
	fmt.Println("Profile cleared.")
	return nil
}

func runSettings(cmd *cobra.Command, args []string) error {
	if err := requireStore(); err != nil {
		return err
	}
	settings, err := st.GetSettings()
	if err != nil {
		return fmt.Errorf("could not read settings: %w", err)
	}

	if settingsLanguage != "" {
		settings.Language = model.Language(settingsLanguage)
		if err := st.SaveSettings(settings); err != nil {
			return fmt.Errorf("could not save settings: %w", err)
		}
		fmt.Printf("Language set to %s.\n", settings.Language)
		return nil
	}

	fmt.Printf("Language: %s\n", settings.Language)
	if settings.Grade != "" {
		fmt.Printf("Grade: %s\n", settings.Grade)
	}
	return nil
}
