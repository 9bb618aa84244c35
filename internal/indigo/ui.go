package indigo

import "indigorun/internal/browser"

// DownloadLinkText is the label of the result download anchor.
const DownloadLinkText = "Download HTML"

// UI names the page controls the invoker drives.
type UI struct {
	SampleInput    browser.Selector
	ReferenceTab   browser.Selector
	ReferenceInput browser.Selector
	Submit         browser.Selector
	DownloadLink   browser.Selector
}

// DefaultUI matches the gear-genomics INDIGO form.
var DefaultUI = UI{
	SampleInput:    browser.ID("inputFile"),
	ReferenceTab:   browser.ID("target-chromatogram-tab"),
	ReferenceInput: browser.ID("targetFileChromatogram"),
	Submit:         browser.ID("btn-submit"),
	DownloadLink:   browser.LinkText(DownloadLinkText),
}
