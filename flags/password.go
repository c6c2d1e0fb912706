package flags

import "github.com/brandonbloom/spie/exchange"

const passwordPrompt = "Enter password for user '%s': "

// PasswordPrompter asks for the password of a user.
type PasswordPrompter func(user string) (string, error)

// CompleteAuth fills in the password of basic auth given as "-a user",
// asking prompt for it. Asking is refused when stdin is ignored or is not
// interactive.
func CompleteAuth(auth *exchange.AuthOptions, ignoreStdin bool, interactive bool, prompt PasswordPrompter) error {
	if !auth.Enabled || auth.Type != exchange.BasicAuth || auth.HasPassword {
		return nil
	}
	if ignoreStdin {
		return usageErrorf("password prompt is disabled when --ignore-stdin is set")
	}
	if !interactive {
		return usageErrorf("password prompt requires an interactive stdin")
	}
	password, err := prompt(auth.UserName)
	if err != nil {
		return err
	}
	auth.Password = password
	auth.HasPassword = true
	return nil
}
