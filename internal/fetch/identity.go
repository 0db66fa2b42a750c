package fetch

import "math/rand/v2"

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; SM-G998B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (iPad; CPU OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0",
}

var acceptLanguages = []string{
	"en-US,en;q=0.9",
	"fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7",
	"de-DE,de;q=0.9,en-US;q=0.8,en;q=0.7",
	"ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7",
	"zh-CN,zh;q=0.9,en-US;q=0.8,en;q=0.7",
}

var playerClients = []string{"web", "mweb", "android", "ios"}

// Randomize returns a copy of base with a freshly drawn request identity:
// user agent, accept-language, player client, and sleep intervals. Each
// batch, and each retry, gets its own identity.
func Randomize(base Options) Options {
	opts := base
	opts.UserAgent = userAgents[rand.IntN(len(userAgents))]
	opts.AcceptLanguage = acceptLanguages[rand.IntN(len(acceptLanguages))]
	opts.PlayerClient = playerClients[rand.IntN(len(playerClients))]
	opts.SleepInterval = 3 + rand.Float64()*9
	opts.MaxSleepInterval = opts.SleepInterval*1.5 + rand.Float64()*4
	return opts
}
