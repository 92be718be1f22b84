package messenger

// Messenger DOM selectors
// These are isolated here because the composer markup changes often
// Update these when the composer can no longer be found

const (
	// ComposerByLabel is the composition box on the current layout
	ComposerByLabel = `div[aria-label="Message"]`
	// ComposerByPlaceholder is the older "Type a message..." layout
	ComposerByPlaceholder = `div[aria-label="Type a message..."]`
	// ComposerEditable matches any rich-text editor on the page
	ComposerEditable = `div[contenteditable="true"]`
)

// ComposerSelectors are joined into one CSS selector list. The first node in
// document order matching the list is resolved, and the wait ends once that
// node is visible.
var ComposerSelectors = []string{
	ComposerByLabel,
	ComposerByPlaceholder,
	ComposerEditable,
}

// threadPath is appended to the site base URL, followed by the thread id
const threadPath = "/messages/e2ee/t/"
