package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_quickdb() {
    local cur prev words cword
    _init_completion || return

    local commands="set get has rm keys dump drop clear logs mirror diff keyring status compact help completion"
    local common="-i --config --verbose --obfuscate --key --passphrase"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    if [[ "$prev" == "-i" ]]; then
        local instances
        instances=$(quickdb status 2>/dev/null | grep -E '^  [^ ]+ \(' | sed 's/^  //' | sed 's/ (.*//')
        COMPREPLY=($(compgen -W "$instances" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        set)
            COMPREPLY=($(compgen -W "$common --mode" -- "$cur"))
            ;;
        get|has|rm|diff)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "$common" -- "$cur"))
            elif [[ "$cmd" == diff && $cword -ge 3 ]]; then
                _filedir
            else
                local keys
                keys=$(quickdb keys 2>/dev/null)
                COMPREPLY=($(compgen -W "$keys" -- "$cur"))
            fi
            ;;
        keys|dump)
            COMPREPLY=($(compgen -W "$common" -- "$cur"))
            ;;
        drop|clear)
            COMPREPLY=($(compgen -W "$common --force" -- "$cur"))
            ;;
        logs)
            COMPREPLY=($(compgen -W "-i --clear --level" -- "$cur"))
            ;;
        mirror)
            if [[ "$prev" == "--file" ]]; then
                _filedir json
            else
                COMPREPLY=($(compgen -W "$common --file --watch" -- "$cur"))
            fi
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

complete -F _quickdb quickdb
`

const zshCompletion = `#compdef quickdb

_quickdb() {
    local -a commands
    commands=(
        'set:Store a value'
        'get:Print a value'
        'has:Check whether a key is stored'
        'rm:Remove keys'
        'keys:List keys of an instance'
        'dump:Print all values of an instance'
        'drop:Delete an instance and all its data'
        'clear:Wipe the whole data file'
        'logs:Show or clear the operation log'
        'mirror:Sync the signed-in user from page data'
        'diff:Compare a stored value with a JSON file'
        'keyring:Manage obfuscation keys in OS keyring'
        'status:Show data file status'
        'compact:Compact the data file'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    local -a common
    common=(
        '-i[Instance name]:instance:_quickdb_instances'
        '--config[Config file]:file:_files'
        '--verbose[Debug logging]'
        '--obfuscate[Obfuscate values]'
        '--key[Obfuscation key (hex)]:key:'
        '--passphrase[Derive the key from a passphrase]'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'quickdb commands' commands
            ;;
        args)
            case "${words[2]}" in
                set)
                    _arguments $common '--mode[Set mode]:mode:(create)' '*:value:'
                    ;;
                get|has|rm)
                    _arguments $common '*:key:_quickdb_keys'
                    ;;
                diff)
                    _arguments $common '1:key:_quickdb_keys' '2:file:_files'
                    ;;
                keys|dump)
                    _arguments $common
                    ;;
                drop|clear)
                    _arguments $common '--force[Skip confirmation]'
                    ;;
                logs)
                    _arguments \
                        '-i[Only this instance]:instance:_quickdb_instances' \
                        '--clear[Clear all logs]' \
                        '--level[Only this level]:level:(info warn error)'
                    ;;
                mirror)
                    _arguments $common '--file[Page data file]:file:_files' '--watch[Follow changes]'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'quickdb commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_quickdb_keys() {
    local -a keys
    keys=(${(f)"$(quickdb keys 2>/dev/null)"})
    _describe -t keys 'stored keys' keys
}

_quickdb_instances() {
    local -a instances
    instances=(${(f)"$(quickdb status 2>/dev/null | grep -E '^  [^ ]+ \(' | sed 's/^  //' | sed 's/ (.*//')"})
    _describe -t instances 'instances' instances
}

_quickdb "$@"
`

const fishCompletion = `# quickdb fish completions

set -l commands set get has rm keys dump drop clear logs mirror diff keyring status compact help completion

complete -c quickdb -f

# Commands
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a set -d 'Store a value'
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a get -d 'Print a value'
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a has -d 'Check whether a key is stored'
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove keys'
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a keys -d 'List keys'
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a dump -d 'Print all values'
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a drop -d 'Delete an instance'
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a clear -d 'Wipe the data file'
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a logs -d 'Show or clear logs'
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a mirror -d 'Sync user from page data'
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare value with file'
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage keys in OS keyring'
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show status'
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact data file'
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c quickdb -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# common flags
complete -c quickdb -n "__fish_seen_subcommand_from set get has rm keys dump drop clear mirror diff keyring" -s i -r -d 'Instance name'
complete -c quickdb -n "__fish_seen_subcommand_from set get has rm keys dump drop clear mirror diff" -l obfuscate -d 'Obfuscate values'
complete -c quickdb -n "__fish_seen_subcommand_from set get has rm keys dump drop clear mirror diff" -l key -r -d 'Obfuscation key (hex)'
complete -c quickdb -n "__fish_seen_subcommand_from set get has rm keys dump drop clear mirror diff" -l passphrase -d 'Derive key from passphrase'

# command flags
complete -c quickdb -n "__fish_seen_subcommand_from set" -l mode -a create -d 'Set mode'
complete -c quickdb -n "__fish_seen_subcommand_from drop clear" -l force -d 'Skip confirmation'
complete -c quickdb -n "__fish_seen_subcommand_from logs" -l clear -d 'Clear all logs'
complete -c quickdb -n "__fish_seen_subcommand_from logs" -l level -a "info warn error" -d 'Only this level'
complete -c quickdb -n "__fish_seen_subcommand_from mirror" -l file -F -d 'Page data file'
complete -c quickdb -n "__fish_seen_subcommand_from mirror" -l watch -d 'Follow changes'
complete -c quickdb -n "__fish_seen_subcommand_from diff" -F

# stored keys
complete -c quickdb -n "__fish_seen_subcommand_from get has rm diff" -a "(quickdb keys 2>/dev/null)"

# keyring subcommands
complete -c quickdb -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c quickdb -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c quickdb -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
