package campaign

import "fmt"

// Controls of the admin console the pipeline relies on.
const (
	SelectorUsername        = "input#username"
	SelectorPassword        = "input#password"
	SelectorEmail           = "input#email"
	SelectorPasswordConfirm = `input[name="password2"]`
	SelectorSubmit          = "button[type=submit]"

	SelectorFormInput = "input.input"

	SelectorListTrigger = ".list-selector .dropdown-trigger, .list-selector button"
	SelectorListMenu    = ".list-selector .dropdown-menu"
	SelectorListOption  = ".list-selector .dropdown-menu .dropdown-item:first-child a, .list-selector .dropdown-menu .dropdown-item:first-child"

	SelectorContinue     = `button:has-text("Continue")`
	SelectorEditableBody = `body[contenteditable="true"]`
	SelectorPreview      = `button:has-text("Preview")`
	SelectorModalActive  = ".modal.is-active"
)

// linkTo selects anchors pointing at path.
func linkTo(path string) string {
	return fmt.Sprintf("a[href=%q]", path)
}
