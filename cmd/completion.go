package cmd

import (
	"fmt"
	"io"
)

// Completion writes the completion script for shell
func Completion(w io.Writer, shell string) error {
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletion)
	case "zsh":
		fmt.Fprint(w, zshCompletion)
	case "fish":
		fmt.Fprint(w, fishCompletion)
	default:
		return fmt.Errorf("unknown shell: %s (supported: bash, zsh, fish)", shell)
	}
	return nil
}

const bashCompletion = `_safelist() {
    local cur prev words cword
    _init_completion || return

    local commands="init login add-group rm-group add-site rm-site ls check passwd backup restore diff compact keyring help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        add-site)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--id --secret" -- "$cur"))
            fi
            ;;
        rm-group)
            COMPREPLY=($(compgen -W "--force" -- "$cur"))
            ;;
        restore)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--force" -- "$cur"))
            else
                _filedir
            fi
            ;;
        backup|diff)
            _filedir
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _safelist safelist
`

const zshCompletion = `#compdef safelist

_safelist() {
    local -a commands
    commands=(
        'init:Create the owner account'
        'login:Check credentials'
        'add-group:Create a favorite group'
        'rm-group:Remove a group and its sites'
        'add-site:Add a site to a group'
        'rm-site:Remove a site from a group'
        'ls:List groups and sites'
        'check:Check a password against a stored site password'
        'passwd:Change the account password'
        'backup:Write an encrypted backup'
        'restore:Replace the vault from a backup'
        'diff:Compare the vault with a backup'
        'compact:Compact a bolt vault'
        'keyring:Manage password in OS keyring'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'safelist commands' commands
            ;;
        args)
            case "${words[2]}" in
                add-site)
                    _arguments \
                        '--id[Email or username for the site]:identifier' \
                        '--secret[Prompt for the site password]' \
                        '*:argument'
                    ;;
                rm-group)
                    _arguments '--force[Remove without confirmation]' '*:group'
                    ;;
                restore)
                    _arguments '--force[Replace without confirmation]' '*:backup file:_files'
                    ;;
                backup|diff)
                    _arguments '*:backup file:_files'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'safelist commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_safelist "$@"
`

const fishCompletion = `# safelist fish completions

set -l commands init login add-group rm-group add-site rm-site ls check passwd backup restore diff compact keyring help completion

complete -c safelist -f

# Commands
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create the owner account'
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a login -d 'Check credentials'
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a add-group -d 'Create a favorite group'
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a rm-group -d 'Remove a group'
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a add-site -d 'Add a site to a group'
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a rm-site -d 'Remove a site'
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List groups and sites'
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a check -d 'Check a site password'
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Change account password'
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a backup -d 'Write an encrypted backup'
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a restore -d 'Restore from a backup'
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare with a backup'
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact a bolt vault'
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c safelist -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# flags
complete -c safelist -n "__fish_seen_subcommand_from add-site" -l id -r -d 'Email or username'
complete -c safelist -n "__fish_seen_subcommand_from add-site" -l secret -d 'Prompt for the site password'
complete -c safelist -n "__fish_seen_subcommand_from rm-group restore" -l force -d 'Skip confirmation'

# backup files
complete -c safelist -n "__fish_seen_subcommand_from backup restore diff" -F

# keyring subcommands
complete -c safelist -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c safelist -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c safelist -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
