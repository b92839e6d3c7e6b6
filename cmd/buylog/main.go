package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"buylog/internal/app"
	"buylog/internal/config"
	"buylog/internal/database"
	"buylog/internal/feed"
	"buylog/internal/realtime"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a BuyApp. The caller must defer app.Close().
// command identifies the CLI command being run (e.g. "feed", "watch").
func newApp(ctx context.Context, command string) (*app.BuyApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewBuyApp(ctx, cfg, command, app.Deps{})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassword prompts on the terminal without echo, or reads one line when
// stdin is not a terminal.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

func printPost(p feed.Post, now time.Time) {
	liked := ""
	if p.IsLiked {
		liked = " (liked)"
	}
	fmt.Printf("%s  @%s  %s  %.2f %s  %s\n", p.ID, p.User.Username, p.Platform.Name, p.Price, p.Currency, feed.RelativeTime(p.Timestamp, now))
	fmt.Printf("    %s\n", p.Content)
	fmt.Printf("    likes:%d%s  comments:%d  reposts:%d\n", p.Likes, liked, p.Comments, p.Reposts)
}

var rootCmd = &cobra.Command{
	Use:          "buylog",
	Short:        "Share and follow purchases",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir)
		if defaults.APIURL != "" {
			cfg.API.BaseURL = defaults.APIURL
		}
		if defaults.SocketURL != "" {
			cfg.Socket.URL = defaults.SocketURL
		}

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("API:      %s\n", cfg.API.BaseURL)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("API:        %s\n", cfg.API.BaseURL)
		fmt.Printf("Socket:     %s\n", cfg.Socket.URL)
		fmt.Printf("Storage:    %s %s\n", cfg.Storage.Type, cfg.Storage.DataDir)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		fmt.Printf("Media:      %s\n", cfg.Media.Type)

		st, ok, err := database.ReadSchemaStatus(cfg.Storage)
		switch {
		case err != nil:
			fmt.Printf("Schema:     unreadable: %v\n", err)
		case ok:
			fmt.Printf("Schema:     %s\n", st)
		default:
			fmt.Printf("Schema:     no database yet\n")
		}
		return nil
	},
}

// auth commands
var loginCmd = &cobra.Command{
	Use:   "login EMAIL",
	Short: "Log in and store the credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "login")
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Service().Login(cmd.Context(), args[0], password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Printf("Logged in as @%s\n", r.User.Username)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register EMAIL",
	Short: "Create an account and log in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		username, _ := cmd.Flags().GetString("username")

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "register")
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Service().Register(cmd.Context(), feed.RegisterRequest{
			Name:     name,
			Username: username,
			Email:    args[0],
			Password: password,
		})
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		fmt.Printf("Registered and logged in as @%s\n", r.User.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "logout")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, _ := cmd.Flags().GetBool("remote")

		a, err := newApp(cmd.Context(), "whoami")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, ok := a.Whoami()
		if !ok {
			fmt.Println("Not logged in.")
			return nil
		}
		if !a.Authenticated() {
			fmt.Printf("Credential for @%s expired at %s\n", claims.Username, claims.ExpiresAt.Format(time.DateTime))
			return nil
		}

		if !remote {
			fmt.Printf("@%s (%s)\n", claims.Username, claims.Subject)
			if !claims.ExpiresAt.IsZero() {
				fmt.Printf("expires %s\n", claims.ExpiresAt.Format(time.DateTime))
			}
			return nil
		}

		u, err := a.Service().CurrentUser(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s @%s\n", u.Name, u.Username)
		fmt.Printf("followers:%d  following:%d  posts:%d\n", u.FollowersCount, u.FollowingCount, u.PostsCount)
		return nil
	},
}

// post commands
var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "List recent purchases",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), "feed")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Service().Posts(cmd.Context(), page, limit)
		if err != nil {
			return err
		}
		if len(p.Posts) == 0 {
			fmt.Println("No posts.")
			return nil
		}
		now := time.Now()
		for _, post := range p.Posts {
			printPost(post, now)
		}
		fmt.Printf("\n%d of %d\n", len(p.Posts), p.Total)
		return nil
	},
}

var postCmd = &cobra.Command{
	Use:   "post TEXT",
	Short: "Share a purchase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		in := feed.CreatePostInput{Text: args[0]}
		in.Price, _ = flags.GetString("price")
		in.Currency, _ = flags.GetString("currency")
		in.PlatformID, _ = flags.GetString("platform")
		in.ProductURL, _ = flags.GetString("url")
		in.PurchaseDate, _ = flags.GetString("date")
		in.Visibility, _ = flags.GetString("visibility")
		in.Location, _ = flags.GetString("location")
		in.Tags, _ = flags.GetStringSlice("tag")
		attach, _ := flags.GetStringSlice("attach")

		a, err := newApp(cmd.Context(), "post")
		if err != nil {
			return err
		}
		defer a.Close()

		if len(attach) > 0 {
			uploaded, err := a.UploadFiles(cmd.Context(), attach, nil)
			if err != nil {
				return fmt.Errorf("uploading attachments: %w", err)
			}
			for _, u := range uploaded {
				in.MediaIDs = append(in.MediaIDs, u.MediaID)
			}
		}

		p, err := a.Service().CreatePost(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Printf("Posted %s\n", p.ID)
		return nil
	},
}

var likeCmd = &cobra.Command{
	Use:   "like POST_ID",
	Short: "Like or unlike a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "like")
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Service().LikePost(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		state := "Unliked"
		if r.Liked {
			state = "Liked"
		}
		fmt.Printf("%s %s (%d likes)\n", state, args[0], r.LikesCount)
		return nil
	},
}

var repostCmd = &cobra.Command{
	Use:   "repost POST_ID",
	Short: "Repost or undo a repost",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "repost")
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Service().RepostPost(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		state := "Removed repost of"
		if r.Reposted {
			state = "Reposted"
		}
		fmt.Printf("%s %s (%d reposts)\n", state, args[0], r.RepostsCount)
		return nil
	},
}

var shareCmd = &cobra.Command{
	Use:   "share POST_ID",
	Short: "Print share links for a post in the feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		origin, _ := cmd.Flags().GetString("origin")

		a, err := newApp(cmd.Context(), "share")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Service().Posts(cmd.Context(), 1, 50)
		if err != nil {
			return err
		}
		for _, post := range p.Posts {
			if post.ID != args[0] {
				continue
			}
			s := feed.Share(post, origin)
			fmt.Printf("%s\n%s\n%s\n\n", s.Title, s.Text, s.URL)
			for name, link := range s.Intents() {
				fmt.Printf("%-9s %s\n", name, link)
			}
			return nil
		}
		return fmt.Errorf("post %s is not in the first page of the feed", args[0])
	},
}

// comment commands
var commentsCmd = &cobra.Command{
	Use:   "comments POST_ID",
	Short: "List comments on a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), "comments")
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.Service().Comments(cmd.Context(), args[0], page, limit)
		if err != nil {
			return err
		}
		if len(c.Comments) == 0 {
			fmt.Println("No comments.")
			return nil
		}
		now := time.Now()
		for _, comment := range c.Comments {
			fmt.Printf("%s  @%s  %s  likes:%d\n    %s\n", comment.ID, comment.User.Username,
				feed.RelativeTime(comment.Timestamp, now), comment.Likes, comment.Content)
		}
		return nil
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment POST_ID TEXT",
	Short: "Comment on a post",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "comment")
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.Service().CreateComment(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Commented %s\n", c.ID)
		return nil
	},
}

var likeCommentCmd = &cobra.Command{
	Use:   "like-comment COMMENT_ID",
	Short: "Like or unlike a comment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "like-comment")
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Service().LikeComment(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("liked:%v likes:%d\n", r.Liked, r.LikesCount)
		return nil
	},
}

// user commands
var userCmd = &cobra.Command{
	Use:   "user USERNAME",
	Short: "Show a user profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "user")
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.Service().UserProfile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s @%s  (id %s)\n", u.Name, u.Username, u.ID)
		if u.Bio != "" {
			fmt.Printf("%s\n", u.Bio)
		}
		fmt.Printf("followers:%d  following:%d  posts:%d  spent:%.2f\n",
			u.FollowersCount, u.FollowingCount, u.PostsCount, u.TotalSpent)
		return nil
	},
}

var followCmd = &cobra.Command{
	Use:   "follow USER_ID",
	Short: "Follow or unfollow a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "follow")
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Service().FollowUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("following:%v followers:%d\n", r.Following, r.FollowersCount)
		return nil
	},
}

// aggregate commands
var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show trending products",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "trending")
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.Service().Trending(cmd.Context())
		if err != nil {
			return err
		}
		for _, it := range items {
			flag := ""
			switch {
			case it.IsHot:
				flag = "hot"
			case it.IsRising:
				flag = "rising"
			}
			fmt.Printf("#%-3d %-30s %-12s %5d today  %s\n", it.Rank, it.Name, it.Category, it.PurchasesToday, flag)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show site statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "stats")
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Service().Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Posts:        %d\n", s.TotalPosts)
		fmt.Printf("Money spent:  %.2f\n", s.TotalMoneySpent)
		fmt.Printf("Active users: %d\n", s.ActiveUsers)
		return nil
	},
}

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List purchase platforms",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "platforms")
		if err != nil {
			return err
		}
		defer a.Close()

		ps, err := a.Service().Platforms(cmd.Context())
		if err != nil {
			return err
		}
		for _, p := range ps {
			fmt.Printf("%-12s %s\n", p.ID, p.Name)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [KEYWORD]",
	Short: "Search posts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")
		keyword := ""
		if len(args) > 0 {
			keyword = args[0]
		}

		a, err := newApp(cmd.Context(), "search")
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Service().SearchPosts(cmd.Context(), feed.SearchParams{Keyword: keyword, Page: page, Size: size})
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		now := time.Now()
		for _, post := range r.Posts {
			printPost(post, now)
		}
		fmt.Printf("\n%d result(s)", r.Total)
		if r.HasNext {
			fmt.Printf(", more with --page %d", page+1)
		}
		fmt.Println()
		return nil
	},
}

// upload command
var uploadCmd = &cobra.Command{
	Use:   "upload FILE...",
	Short: "Upload media for a post",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "upload")
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.UploadFiles(cmd.Context(), args, func(name string, percent int) {
			fmt.Fprintf(os.Stderr, "\r%s %3d%%", name, percent)
			if percent == 100 {
				fmt.Fprintln(os.Stderr)
			}
		})
		for _, r := range results {
			fmt.Printf("%s  %s  %s  %s\n", r.MediaID, r.Name, feed.FormatFileSize(r.Size), r.FileURL)
		}
		return err
	},
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow live activity until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "watch")
		if err != nil {
			return err
		}
		defer a.Close()

		unsubState := a.Socket().OnStateChange(func(s realtime.State) {
			fmt.Fprintf(os.Stderr, "[%s]\n", s)
		})
		defer unsubState()
		unsubEvents := a.Socket().Subscribe(feed.EventWildcard, func(ev feed.Event) {
			fmt.Printf("%s  %s  %s\n", time.Now().Format(time.TimeOnly), ev.Type, ev.Payload)
		})
		defer unsubEvents()

		return a.Watch(cmd.Context())
	},
}

// notifications command
var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Manage recorded notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), "notifications")
		if err != nil {
			return err
		}
		defer a.Close()

		ns, err := a.Notifications().List(limit)
		if err != nil {
			return err
		}
		if len(ns) == 0 {
			fmt.Println("No notifications.")
			return nil
		}
		unread, err := a.Notifications().UnreadCount()
		if err != nil {
			return err
		}
		for _, n := range ns {
			mark := " "
			if !n.Read {
				mark = "*"
			}
			fmt.Printf("%s %s  %s  %-16s %s\n", mark, n.ID, n.Timestamp.Local().Format(time.DateTime), n.Type, n.Payload)
		}
		fmt.Printf("\n%d unread\n", unread)
		return nil
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read ID",
	Short: "Mark a notification read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "notifications")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Notifications().MarkAsRead(args[0])
	},
}

var notificationsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every notification",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "notifications")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Notifications().ClearAll(); err != nil {
			return err
		}
		fmt.Println("Notifications cleared.")
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// notifications subcommands
	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsListCmd.Flags().IntP("limit", "n", 50, "Maximum number of notifications to show")
	notificationsCmd.AddCommand(notificationsReadCmd)
	notificationsCmd.AddCommand(notificationsClearCmd)

	registerCmd.Flags().String("name", "", "Display name")
	registerCmd.Flags().String("username", "", "Username (letters and digits)")
	whoamiCmd.Flags().Bool("remote", false, "Fetch the profile from the server")

	feedCmd.Flags().Int("page", 1, "Page number")
	feedCmd.Flags().IntP("limit", "n", 10, "Posts per page")
	commentsCmd.Flags().Int("page", 1, "Page number")
	commentsCmd.Flags().IntP("limit", "n", 10, "Comments per page")
	searchCmd.Flags().Int("page", 0, "Page number, starting at 0")
	searchCmd.Flags().Int("size", 10, "Results per page")
	shareCmd.Flags().String("origin", "http://localhost:3000", "Web client origin for share links")

	postFlags := postCmd.Flags()
	postFlags.StringP("price", "p", "", "Price paid, e.g. 19.99")
	postFlags.String("currency", "USD", "Three-letter currency code")
	postFlags.String("platform", "", "Platform ID, as listed by the platforms command")
	postFlags.String("url", "", "Product URL")
	postFlags.String("date", "", "Purchase date, YYYY-MM-DD")
	postFlags.String("visibility", "PUBLIC", "PUBLIC, PRIVATE or FRIENDS")
	postFlags.String("location", "", "Where it was bought")
	postFlags.StringSlice("tag", nil, "Tag (repeatable)")
	postFlags.StringSlice("attach", nil, "Image or video to upload and attach (repeatable)")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(likeCmd)
	rootCmd.AddCommand(repostCmd)
	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(commentsCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(likeCommentCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(followCmd)
	rootCmd.AddCommand(trendingCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(platformsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(notificationsCmd)
}
