package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// runRemote is the shared submission path for every one-shot command. It
// prints the result to stdout on success and surfaces failures as errors
// so cobra exits non-zero.
func runRemote(cmd *cobra.Command, command string, args []string) error {
	client, err := newGatewayClient()
	if err != nil {
		return err
	}
	result, err := client.Execute(cmd.Context(), command, args)
	if err != nil {
		return err
	}
	if result.Status == "error" {
		msg := result.Message
		if msg == "" {
			msg = result.Err
		}
		return errors.New(msg)
	}
	if result.JobID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Job started: %s\n", result.JobID)
		fmt.Fprintln(cmd.OutOrStdout(), "Run arcana without arguments to track it interactively.")
		return nil
	}
	out := result.Output
	if out == "" {
		out = result.Message
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func newCodeCmd() *cobra.Command {
	code := &cobra.Command{
		Use:   "code",
		Short: "Code generation commands",
	}
	code.AddCommand(&cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate code from a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemote(cmd, "generate-code", []string{strings.Join(args, " ")})
		},
	})
	return code
}

func newShellCmd() *cobra.Command {
	shell := &cobra.Command{
		Use:   "shell",
		Short: "Shell helper commands",
	}
	shell.AddCommand(&cobra.Command{
		Use:   "translate <instruction>",
		Short: "Translate a natural-language instruction into a shell command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemote(cmd, "translate-shell", []string{strings.Join(args, " ")})
		},
	})
	return shell
}

func newAgentCmd() *cobra.Command {
	agent := &cobra.Command{
		Use:   "agent",
		Short: "Agent commands",
	}
	agent.AddCommand(&cobra.Command{
		Use:   "run <id> <prompt>",
		Short: "Run an agent with a prompt; may start a background job",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemote(cmd, "agent-execute", []string{args[0], strings.Join(args[1:], " ")})
		},
	})
	return agent
}

func newReasonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reason <prompt>",
		Short: "Ask the backend to reason about a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemote(cmd, "reason", []string{strings.Join(args, " ")})
		},
	}
}

func newFileOperationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "file-operation <op> <path> [content]",
		Short: "Run a remote file operation (read, write, delete)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fwd := []string{args[0], args[1]}
			if len(args) > 2 {
				fwd = append(fwd, strings.Join(args[2:], " "))
			}
			return runRemote(cmd, "file-operation", fwd)
		},
	}
}
