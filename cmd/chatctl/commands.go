package main

import (
	"chat-relay/client"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/services"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const requestTimeout = 10 * time.Second

func newRegisterCommand(opts *options) *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and print its token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			session, err := c.Register(ctx, username, email, password)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), session)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLoginCommand(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			session, err := c.Login(ctx, email, password)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), session)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func printSession(w io.Writer, session services.Session) {
	fmt.Fprintf(w, "Logged in as %s (%s)\n", session.User.Username, session.User.ID)
	fmt.Fprintf(w, "export CHAT_RELAY_TOKEN=%s\n", session.Token)
}

func newUsersCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the other users and their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.authenticated()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			users, err := c.Users(ctx)
			if err != nil {
				return err
			}
			table := newTable(cmd.OutOrStdout(), "ID", "Username", "Status")
			for _, u := range users {
				table.Append([]string{string(u.ID), u.Username, string(u.Status)})
			}
			table.Render()
			return nil
		},
	}
}

func newRoomsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List, create or delete rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.authenticated()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			rooms, err := c.Rooms(ctx)
			if err != nil {
				return err
			}
			table := newTable(cmd.OutOrStdout(), "ID", "Name", "Type", "Admin", "Members")
			for _, r := range rooms {
				members := lo.Map(r.Members, func(m domain.UserID, _ int) string { return string(m) })
				table.Append([]string{string(r.ID), r.Name, r.Kind, string(r.Admin), strings.Join(members, ",")})
			}
			table.Render()
			return nil
		},
	}

	var kind string
	var members []string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a room administered by the caller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.authenticated()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			room, err := c.CreateRoom(ctx, services.CreateRoomRequest{
				Name:    args[0],
				Kind:    kind,
				Members: lo.Map(members, func(m string, _ int) domain.UserID { return domain.UserID(m) }),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Room %s created (%s)\n", room.Name, room.ID)
			return nil
		},
	}
	create.Flags().StringVar(&kind, "type", "", "Room type")
	create.Flags().StringSliceVar(&members, "member", nil, "Member user id (repeatable)")

	remove := &cobra.Command{
		Use:   "delete <room-id>",
		Short: "Delete a room and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.authenticated()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			if err := c.DeleteRoom(ctx, domain.RoomID(args[0])); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Room deleted")
			return nil
		},
	}

	cmd.AddCommand(create, remove)
	return cmd
}

func newHistoryCommand(opts *options) *cobra.Command {
	var private bool
	var cursor string
	var limit int
	cmd := &cobra.Command{
		Use:   "history <room-id|user-id>",
		Short: "Print a page of conversation history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.authenticated()
			if err != nil {
				return err
			}
			kind := domain.DeliveryRoom
			if private {
				kind = domain.DeliveryPrivate
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			page, err := c.History(ctx, kind, args[0], cursor, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, msg := range page.Messages {
				printMessage(out, msg)
			}
			if page.NextCursor != nil {
				fmt.Fprintf(out, "\nolder messages: --cursor %s\n", *page.NextCursor)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&private, "private", false, "Treat the id as a user for a private conversation")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Cursor returned by a previous page")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size (server default when 0)")
	return cmd
}

func newListenCommand(opts *options) *cobra.Command {
	var channels []string
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Stream live events, optionally joining channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.authenticated()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stream, err := c.Dial(ctx)
			if err != nil {
				return fmt.Errorf("websocket dial failed: %w", err)
			}
			go func() {
				<-ctx.Done()
				_ = stream.Close()
			}()
			for _, channel := range channels {
				if err := stream.Join(channel); err != nil {
					return err
				}
			}
			return listen(ctx, cmd.OutOrStdout(), stream)
		},
	}
	cmd.Flags().StringSliceVar(&channels, "join", nil, "Channel to join, room:<id> or dm:<a>:<b> (repeatable)")
	return cmd
}

func listen(ctx context.Context, out io.Writer, stream *client.Stream) error {
	for {
		in, err := stream.Next(0)
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("closed by server (%d): %s", closeErr.Code, closeErr.Text)
			}
			return err
		}
		printEvent(out, in)
	}
}

func printEvent(out io.Writer, in event.Inbound) {
	switch in.Type {
	case event.ReceiveMessageType:
		if msg, err := client.Decode[domain.EnrichedMessage](in); err == nil {
			printMessage(out, msg)
		}
	case event.UserStatusType:
		if status, err := client.Decode[event.UserStatus](in); err == nil {
			fmt.Fprintln(out, color.FgYellow.Render(fmt.Sprintf("* %s is %s", status.UserID, status.Status)))
		}
	case event.UserTypingType:
		if typing, err := client.Decode[event.UserTyping](in); err == nil && typing.IsTyping {
			fmt.Fprintln(out, color.FgDarkGray.Render(fmt.Sprintf("  %s is typing in %s", typing.UserID, typing.Channel)))
		}
	case event.MessageRejectedType, event.JoinRejectedType, event.ConnectionRejectedType:
		fmt.Fprintln(out, color.FgRed.Render(fmt.Sprintf("! %s %s", in.Type, string(in.Payload))))
	default:
		fmt.Fprintln(out, color.FgCyan.Render(fmt.Sprintf("- %s %s", in.Type, string(in.Payload))))
	}
}

func printMessage(out io.Writer, msg domain.EnrichedMessage) {
	author := msg.Sender.Username
	if author == "" {
		author = string(msg.SenderID)
	}
	fmt.Fprintf(out, "[%s] %s %s: %s\n",
		msg.CreatedAt.Local().Format(time.TimeOnly),
		color.FgCyan.Render(msg.ConversationKey().String()),
		color.FgGreen.Render(author),
		msg.Content,
	)
}

func newSendCommand(opts *options) *cobra.Command {
	var private bool
	cmd := &cobra.Command{
		Use:   "send <room-id|user-id> <content>",
		Short: "Send one message and wait for its delivery echo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.authenticated()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			stream, err := c.Dial(ctx)
			if err != nil {
				return fmt.Errorf("websocket dial failed: %w", err)
			}
			defer stream.Close()

			send := domain.SendMessageCommand{Content: args[1], Delivery: domain.DeliveryRoom, Target: args[0], Ref: "chatctl"}
			if private {
				send.Delivery = domain.DeliveryPrivate
			} else if err := stream.Join(string(domain.RoomKey(domain.RoomID(args[0])))); err != nil {
				return err
			}
			if err := stream.Send(send); err != nil {
				return err
			}
			return awaitDelivery(cmd.OutOrStdout(), stream)
		},
	}
	cmd.Flags().BoolVar(&private, "private", false, "Send to a user instead of a room")
	return cmd
}

// awaitDelivery waits for the echo of the sent message or its rejection.
func awaitDelivery(out io.Writer, stream *client.Stream) error {
	deadline := time.Now().Add(requestTimeout)
	for time.Now().Before(deadline) {
		in, err := stream.Next(time.Until(deadline))
		if err != nil {
			return err
		}
		switch in.Type {
		case event.ReceiveMessageType:
			printEvent(out, in)
			return nil
		case event.MessageRejectedType, event.JoinRejectedType:
			rejected, _ := client.Decode[event.MessageRejected](in)
			return fmt.Errorf("%s: %s", rejected.Code, rejected.Reason)
		}
	}
	return fmt.Errorf("no delivery confirmation within %s", requestTimeout)
}

func newTable(out io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
