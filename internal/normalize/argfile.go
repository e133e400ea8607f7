package normalize

import (
	"fmt"
	"io/ioutil"
	"strings"
)

// maxArgFileDepth bounds argument-file recursion and raises a diagnostic
// if exceeded, so a self-referential -f chain cannot recurse forever.
const maxArgFileDepth = 32

// ErrArgFileDepthExceeded is raised when `-f` files recurse past
// maxArgFileDepth.
type ErrArgFileDepthExceeded struct {
	Path string
}

func (e *ErrArgFileDepthExceeded) Error() string {
	return fmt.Sprintf("normalize: argument file recursion exceeds depth %d at %s", maxArgFileDepth, e.Path)
}

// expandArgs walks raw, splicing the contents of every `-f <file>` in place
// (recursively), and returns the fully flattened token stream.
func (n *normalizer) expandArgs(raw []string, depth int) ([]string, error) {
	out := make([]string, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		tok := raw[i]
		// Export -D/+define+ values now so a later -f file's ${NAME} resolves.
		var defs []string
		switch {
		case tok == "-D" && i+1 < len(raw):
			defs = raw[i+1 : i+2]
		case strings.HasPrefix(tok, "-D") && tok != "-D":
			defs = []string{strings.TrimPrefix(tok, "-D")}
		case strings.HasPrefix(tok, "+define+"):
			defs = splitPlusList(tok, "+define+")
		}
		for _, d := range defs {
			if name, value := splitDefine(d); name != "" {
				n.envOverrides[name] = value
			}
		}
		if tok == "-f" {
			if i+1 >= len(raw) {
				n.warnIgnored("-f: missing file operand")
				continue
			}
			i++
			expanded, err := n.expandArgFile(raw[i], depth)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
			continue
		}
		out = append(out, tok)
	}
	return out, nil
}

// expandArgFile reads path, strips comments, substitutes ${VAR}/$VAR
// environment references, tokenizes on whitespace, and recursively expands
// any nested `-f` directives found inside.
func (n *normalizer) expandArgFile(path string, depth int) ([]string, error) {
	if depth >= maxArgFileDepth {
		return nil, &ErrArgFileDepthExceeded{Path: path}
	}

	buf, err := ioutil.ReadFile(path)
	if err != nil {
		n.errorf("argument file not found: %s", path)
		return nil, nil
	}

	var tokens []string
	for _, line := range strings.Split(string(buf), "\n") {
		line = stripComment(line)
		for _, field := range strings.Fields(line) {
			tokens = append(tokens, n.expandEnvVars(field))
		}
	}

	return n.expandArgs(tokens, depth+1)
}

// stripComment removes a trailing "//"-introduced or "#"-introduced comment
// from one line of an argument file.
func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	return line
}

// expandEnvVars substitutes ${VAR} and $VAR references, preferring defines
// registered via -D/+define+ over the process environment, so a later -f
// expansion sees the same value a command-line define would set.
func (n *normalizer) expandEnvVars(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '$' {
			b.WriteByte(s[i])
			i++
			continue
		}

		rest := s[i+1:]
		var name string
		var consumed int
		if strings.HasPrefix(rest, "{") {
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				b.WriteByte(s[i])
				i++
				continue
			}
			name = rest[1:end]
			consumed = end + 1
		} else {
			end := 0
			for end < len(rest) && isEnvNameByte(rest[end]) {
				end++
			}
			if end == 0 {
				b.WriteByte(s[i])
				i++
				continue
			}
			name = rest[:end]
			consumed = end
		}

		b.WriteString(n.lookupEnv(name))
		i += 1 + consumed
	}
	return b.String()
}

func isEnvNameByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
