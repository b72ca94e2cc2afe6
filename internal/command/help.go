package command

// HelpText lists the command, its options and a few examples.
const HelpText = `Commands Help
Bot for checking website information

Main command
` + Name + ` <url1> <url2> ... [options]

Options (specify at least one)
-s / -status - Show site status
-c / -code - Show status code
-p / -ping - Show ping
-ip - Show server IP address
-geo - Show geolocation

Examples
` + Name + ` steampowered.com -s -c
` + Name + ` google.com github.com -p -ip
` + Name + ` example.com -status -code -ping -ip -geo
` + Name + ` site1.com site2.com site3.com -s -c
`
