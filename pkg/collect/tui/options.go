package tui

// Option configures the Prompter.
type Option func(*Prompter)

// WithPromptDriver overrides the prompt driver used by the prompter.
func WithPromptDriver(driver PromptDriver) Option {
	return func(p *Prompter) {
		if driver != nil {
			p.driver = driver
		}
	}
}

// WithAskAll prompts for every field, offering existing surface values as
// defaults, instead of only the missing ones.
func WithAskAll(askAll bool) Option {
	return func(p *Prompter) {
		p.askAll = askAll
	}
}
