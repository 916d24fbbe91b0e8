package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/gangway/attr"
	"github.com/pithecene-io/gangway/cli/render"
)

// AttrsResponse reports both sides of one attribute translation.
type AttrsResponse struct {
	Windows string `json:"windows"`
	Octal   string `json:"octal"`
	Mode    string `json:"mode"`
}

// AttrsCommand returns the attrs command. It translates between
// Windows attribute flags and POSIX permission bits without touching
// any host.
func AttrsCommand() *cli.Command {
	return &cli.Command{
		Name:  "attrs",
		Usage: "Translate Windows file attributes to POSIX permissions and back",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:  "windows",
				Usage: "Windows attribute letters, e.g. RHA (R=read-only, H=hidden, S=system, A=archive)",
			},
			&cli.UintFlag{
				Name:  "octal",
				Usage: "POSIX permission bits in octal, e.g. 644",
			},
		),
		Action: attrsAction,
	}
}

func attrsAction(c *cli.Context) error {
	windowsSet := c.IsSet("windows")
	octalSet := c.IsSet("octal")
	if windowsSet == octalSet {
		return cli.Exit("exactly one of --windows or --octal is required", 1)
	}

	var attrs attr.WindowsAttrs
	var perms attr.PosixPerms
	if windowsSet {
		parsed, err := parseWindowsLetters(c.String("windows"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		attrs = parsed
		perms = attr.WindowsToPosix(attrs)
	} else {
		mode, err := parseOctal(c.Uint("octal"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		perms = attr.FromOctal(mode)
		attrs = attr.PosixToWindows(perms)
	}

	resp := AttrsResponse{
		Windows: windowsLetters(attrs),
		Octal:   fmt.Sprintf("%03o", perms.Octal()),
		Mode:    perms.FileMode().String(),
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(resp)
}

func parseWindowsLetters(s string) (attr.WindowsAttrs, error) {
	var attrs attr.WindowsAttrs
	for _, letter := range strings.ToUpper(s) {
		switch letter {
		case 'R':
			attrs.ReadOnly = true
		case 'H':
			attrs.Hidden = true
		case 'S':
			attrs.System = true
		case 'A':
			attrs.Archive = true
		case '-':
			// Allows "----" for a fully clear set.
		default:
			return attr.WindowsAttrs{}, fmt.Errorf("unknown attribute letter %q (expect R, H, S, A)", letter)
		}
	}
	return attrs, nil
}

func windowsLetters(attrs attr.WindowsAttrs) string {
	var b strings.Builder
	write := func(set bool, letter byte) {
		if set {
			b.WriteByte(letter)
		} else {
			b.WriteByte('-')
		}
	}
	write(attrs.ReadOnly, 'R')
	write(attrs.Hidden, 'H')
	write(attrs.System, 'S')
	write(attrs.Archive, 'A')
	return b.String()
}

// parseOctal reinterprets the decimal digits of the flag value as octal,
// so --octal 644 means 0o644.
func parseOctal(v uint) (uint32, error) {
	var mode uint32
	for _, digit := range fmt.Sprintf("%d", v) {
		if digit < '0' || digit > '7' {
			return 0, fmt.Errorf("invalid octal digit %q in %d", digit, v)
		}
		mode = mode*8 + uint32(digit-'0')
	}
	if mode > 0o777 {
		return 0, fmt.Errorf("permission bits out of range: %d", v)
	}
	return mode, nil
}
