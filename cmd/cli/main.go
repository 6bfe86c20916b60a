package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "vidl",
		Short: "vidl CLI - Session-based media download and merge",
		Long:  `A command-line interface for downloading and merging media streams through a vidl-api server.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(logsCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func postJSON(path string, payload any) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return http.Post(serverURL+path, "application/json", bytes.NewBuffer(data))
}

// openSession opens a new download session and returns its ID.
func openSession() (string, error) {
	resp, err := postJSON("/api/v1/sessions", struct{}{})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("server refused session: %s", string(body))
	}

	var result struct {
		SessionID string `json:"sessionID"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	return result.SessionID, nil
}

// pollProgress prints progress lines until stop is closed.
func pollProgress(sessionID string, stop <-chan struct{}) {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			resp, err := client.Get(serverURL + "/api/v1/sessions/" + sessionID + "/progress")
			if err != nil {
				continue
			}
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			var info struct {
				State    string `json:"state"`
				Message  string `json:"msg"`
				Progress int    `json:"progress"`
			}
			if json.Unmarshal(body, &info) != nil {
				continue
			}
			fmt.Printf("\r%-40s %3d%%", info.Message, info.Progress)
		}
	}
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [url]",
	Short: "Download media at the requested quality",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		url := args[0]
		quality, _ := cmd.Flags().GetInt("quality")
		output, _ := cmd.Flags().GetString("output")

		sessionID, err := openSession()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		stop := make(chan struct{})
		go pollProgress(sessionID, stop)

		resp, err := postJSON("/api/v1/sessions/"+sessionID+"/download",
			map[string]any{"url": url, "quality": quality})
		close(stop)
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		if output == "" {
			output = attachmentName(resp, sessionID)
		}
		file, err := os.Create(output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()

		written, err := io.Copy(file, resp.Body)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved %s (%d bytes)\n", output, written)
	},
}

// attachmentName extracts the filename from Content-Disposition, falling back
// to the session ID.
func attachmentName(resp *http.Response, sessionID string) string {
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	if err == nil && params["filename"] != "" {
		return params["filename"]
	}
	return sessionID + ".mp4"
}

var searchCmd = &cobra.Command{
	Use:   "search [url]",
	Short: "List the available formats for a media reference",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		resp, err := postJSON("/api/v1/search", map[string]string{"url": args[0]})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result struct {
			Title        string `json:"title"`
			Duration     string `json:"duration"`
			VideoFormats []struct {
				QualityLabel string `json:"qualityLabel"`
				Container    string `json:"container"`
			} `json:"videoFormats"`
			AudioFormats []struct {
				AudioBitrate int    `json:"audioBitrate"`
				Container    string `json:"container"`
			} `json:"audioFormats"`
		}
		json.Unmarshal(body, &result)

		fmt.Printf("Title:    %s\n", result.Title)
		fmt.Printf("Duration: %s\n\n", result.Duration)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tQUALITY\tCONTAINER")
		for _, f := range result.VideoFormats {
			fmt.Fprintf(w, "video\t%s\t%s\n", f.QualityLabel, f.Container)
		}
		for _, f := range result.AudioFormats {
			fmt.Fprintf(w, "audio\t%dkbps\t%s\n", f.AudioBitrate, f.Container)
		}
		w.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent download requests",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		limit, _ := cmd.Flags().GetInt("limit")

		resp, err := http.Get(fmt.Sprintf("%s/api/v1/history?limit=%d", serverURL, limit))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var result struct {
			Records []map[string]interface{} `json:"records"`
		}
		json.Unmarshal(body, &result)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tURL\tKIND\tQUALITY\tSTATUS")
		for _, r := range result.Records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n",
				truncate(str(r["session_id"]), 12),
				truncate(str(r["url"]), 40),
				r["kind"],
				r["quality"],
				r["status"])
		}
		w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download request statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/v1/history/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var stats map[string]interface{}
		json.Unmarshal(body, &stats)

		fmt.Println("Request Statistics:")
		fmt.Printf("  Total:     %v\n", stats["total"])
		fmt.Printf("  Completed: %v\n", stats["completed"])
		fmt.Printf("  Failed:    %v\n", stats["failed"])
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "View server logs by category (web-access, session, error)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		limit, _ := cmd.Flags().GetInt("limit")

		resp, err := http.Get(fmt.Sprintf("%s/api/v1/logs/%s?limit=%d", serverURL, args[0], limit))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result struct {
			Entries []struct {
				Timestamp string `json:"ts"`
				Level     string `json:"level"`
				Message   string `json:"msg"`
			} `json:"entries"`
		}
		json.Unmarshal(body, &result)

		for _, entry := range result.Entries {
			fmt.Printf("%s  %-5s  %s\n", entry.Timestamp, entry.Level, entry.Message)
		}
	},
}

func init() {
	fetchCmd.Flags().IntP("quality", "q", 720, "Video tier (144-4320) or audio bitrate tier (48, 64, 128, 160)")
	fetchCmd.Flags().StringP("output", "o", "", "Output file path")
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum records to show")
	logsCmd.Flags().IntP("limit", "n", 100, "Maximum entries to show")
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
