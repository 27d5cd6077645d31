package cli

import tuistyles "github.com/custodia-labs/pdfqa/internal/adapters/driving/tui/styles"

// styles is the style set used by all commands.
var styles = tuistyles.DefaultStyles()
