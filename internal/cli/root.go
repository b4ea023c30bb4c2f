package cli

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"
	"github.com/hanwen/go-fuse/v2/fuse/pathfs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mvp-joe/csvfs/internal/backend"
	"github.com/mvp-joe/csvfs/internal/config"
	"github.com/mvp-joe/csvfs/internal/vfs"
)

const daemonizedEnv = "CSVFS_DAEMONIZED"

var (
	cfgFile    string
	foreground bool
	debugFlag      bool
	pageSize   int
)

// rootCmd mounts a CSV source directory at a mount point.
var rootCmd = &cobra.Command{
	Use:   "csvfs <source_dir> <mount_point>",
	Short: "Mount a directory of CSV files as a queryable virtual filesystem",
	Long: `csvfs reconciles a directory of CSV files into an embedded relational
store and mounts a virtual filesystem over it: whole-file and paginated CSV
mirrors under /data, executable SQL query files and their results under
/sql, and per-table and global statistics documents under /stats.`,
	Args: cobra.ExactArgs(2),
	RunE: runMount,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .csvfs.yaml next to the source directory)")
	rootCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "run in the foreground instead of daemonizing")
	rootCmd.Flags().BoolVarP(&debugFlag, "debug", "d", false, "enable FUSE debug logging")
	rootCmd.Flags().IntVarP(&pageSize, "page-size", "n", 0, "rows per page under /data/paged_<table> (default 3000)")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		viper.ReadInConfig()
	}
}

func runMount(cmd *cobra.Command, args []string) error {
	sourceDir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve source directory: %w", err)
	}
	mountPoint, err := filepath.Abs(args[1])
	if err != nil {
		return fmt.Errorf("resolve mount point: %w", err)
	}

	cfg, err := config.LoadConfigFromDir(sourceDir)
	if err != nil {
		return err
	}
	cfg.MountSource = sourceDir
	cfg.MountPoint = mountPoint
	if pageSize > 0 {
		cfg.PageSize = pageSize
	}
	cfg.Foreground = cfg.Foreground || foreground || os.Getenv(daemonizedEnv) == "1"
	cfg.Debug = cfg.Debug || debugFlag

	if err := config.Validate(cfg); err != nil {
		return err
	}

	if !cfg.Foreground {
		return daemonize(cmd, args)
	}

	return serve(cfg)
}

// daemonize re-executes the current process detached from the controlling
// terminal, then exits the parent. The child runs with the same arguments
// plus the "foreground" behavior enabled internally via daemonizedEnv, since
// a detached process has nothing useful to "background" further.
func daemonize(cmd *cobra.Command, args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}

	child := exec.Command(exe, append(os.Args[1:], "--foreground")...)
	child.Env = append(os.Environ(), daemonizedEnv+"=1")
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	child.Stdout = nil
	child.Stderr = nil

	if err := child.Start(); err != nil {
		return fmt.Errorf("daemonize: %w", err)
	}

	fmt.Printf("csvfs mounted in background, pid %d\n", child.Process.Pid)
	return nil
}

func serve(cfg *config.Config) error {
	b, err := backend.Open(cfg.MountSource, cfg.PageSize)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer b.Close()

	fs, err := vfs.New(b)
	if err != nil {
		return fmt.Errorf("build filesystem: %w", err)
	}

	nodeFs := pathfs.NewPathNodeFs(fs, nil)
	conn := nodefs.NewFileSystemConnector(nodeFs.Root(), nodefs.NewOptions())

	server, err := fuse.NewServer(conn.RawFS(), cfg.MountPoint, &fuse.MountOptions{
		Debug: cfg.Debug,
		Name:  "csvfs",
	})
	if err != nil {
		return fmt.Errorf("mount %s: %w", cfg.MountPoint, err)
	}

	log.Printf("csvfs: mounted %s at %s (page_size=%d)", cfg.MountSource, cfg.MountPoint, cfg.PageSize)
	server.Serve()
	return nil
}
