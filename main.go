/*
Copyright (C) 2023, 2024  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
/*
	scmer standalone interpreter shell

	https://pkelchte.wordpress.com/2013/12/31/scm-go/

*/
package main

import "os"
import "io"
import "fmt"
import "flag"
import "time"
import "bufio"
import "syscall"
import "os/signal"
import "crypto/rand"
import "path/filepath"
import "runtime/pprof"
import "github.com/dc0d/onexit"
import "github.com/google/uuid"
import "github.com/fsnotify/fsnotify"
import "github.com/launix-de/scmer/scm"

var IOEnv scm.Env

func getImport(path string) func(a ...scm.Scmer) scm.Scmer {
	return func(a ...scm.Scmer) scm.Scmer {
		filename := path + "/" + scm.String(a[0])
		// TODO: filepath.Walk for wildcards
		wd := filepath.Dir(filename)
		otherPath := scm.Env{
			Vars: scm.Vars{
				"__DIR__":  &scm.Binding{Kind: scm.BindValue, Value: path},
				"__FILE__": &scm.Binding{Kind: scm.BindValue, Value: filename},
				"import":   &scm.Binding{Kind: scm.BindValue, Value: (func(...scm.Scmer) scm.Scmer)(getImport(wd))},
				"load":     &scm.Binding{Kind: scm.BindValue, Value: (func(...scm.Scmer) scm.Scmer)(getLoad(wd))},
				"watch":    &scm.Binding{Kind: scm.BindValue, Value: (func(...scm.Scmer) scm.Scmer)(getWatch(wd))},
			},
			Numbered: nil,
			Outer:    &IOEnv,
			Nodefine: true,
		}
		bytes, err := os.ReadFile(filename)
		if err != nil {
			panic(err)
		}
		return scm.EvalAll(filename, string(bytes), &otherPath)
	}
}

func getLoad(path string) func(a ...scm.Scmer) scm.Scmer {
	return func(a ...scm.Scmer) scm.Scmer {
		filename := path + "/" + scm.String(a[0])
		if len(a) > 2 {
			file, err := os.Open(filename)
			if err != nil {
				panic(err)
			}
			splitter := bufio.NewReader(file)
			delimiter := scm.String(a[2])
			if len(delimiter) != 1 {
				panic("load delimiter must be 1 byte long")
			}
			for {
				str, err := splitter.ReadString(delimiter[0])
				if err == io.EOF {
					break // file is finished
				}
				if err != nil {
					panic(err)
				}
				scm.Apply(a[1], str)
			}
		} else {
			// read in whole
			bytes, err := os.ReadFile(filename)
			if err != nil {
				panic(err)
			}
			if len(a) > 1 {
				scm.Apply(a[1], string(bytes))
			} else {
				return string(bytes)
			}
		}
		return true
	}
}

func getWatch(path string) func(a ...scm.Scmer) scm.Scmer {
	return func(a ...scm.Scmer) scm.Scmer {
		filename := path + "/" + scm.String(a[0])
		reread := func() {
			// read in whole
			bytes, err := os.ReadFile(filename)
			if err != nil {
				panic(err)
			}
			scm.Apply(a[1], string(bytes))
		}
		reread() // read once at the beginning in sync
		// watch for changes
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			panic(err)
		}
		go func() {
			for {
				select {
				case <-watcher.Events:
					// flush all other events
					for {
						time.Sleep(10 * time.Millisecond) // delay a bit, so we don't read empty files
						select {
						case <-watcher.Events:
							// ignore
						default:
							goto to_reread
						}
					}
				to_reread:
					// now reread the file
					func() {
						defer func() {
							if err := recover(); err != nil {
								// error happens during reload: log to console
								fmt.Println(err)
							}
						}()
						reread()
					}()
					watcher.Add(filename) // text editors rename, so we have to rewatch
				}
			}
		}()
		err = watcher.Add(filename)
		if err != nil {
			panic(err)
		}
		return true
	}
}

// workaround for flags package to allow multiple values
type arrayFlags []string

func (i *arrayFlags) String() string {
	return "dummy"
}

func (i *arrayFlags) Set(value string) error {
	*i = append(*i, value)
	return nil
}

func setupIO(wd string) {
	// define some IO functions (scm will not provide them since it is sandboxable)
	IOEnv = scm.Env{
		Vars:     scm.Vars{},
		Numbered: nil,
		Outer:    &scm.Globalenv,
		Nodefine: true, // other defines go into Globalenv
	}
	scm.DeclareTitle("IO")
	scm.Declare(&IOEnv, &scm.Declaration{
		Name: "print", Desc: "Prints values to stdout (only in IO environment)",
		MinParameter: 1, MaxParameter: 1000,
		Params: []scm.DeclarationParameter{
			scm.DeclarationParameter{Name: "value...", Type: "any", Desc: "values to print"},
		}, Returns: "bool",
		Fn: func(a ...scm.Scmer) scm.Scmer {
			for _, s := range a {
				fmt.Print(scm.String(s))
			}
			fmt.Println()
			return true
		}, Special: nil, Foldable: false,
	})
	scm.Declare(&IOEnv, &scm.Declaration{
		Name: "env", Desc: "returns the content of a environment variable",
		MinParameter: 1, MaxParameter: 2,
		Params: []scm.DeclarationParameter{
			scm.DeclarationParameter{Name: "var", Type: "string", Desc: "envvar"},
			scm.DeclarationParameter{Name: "default", Type: "string", Desc: "default if the env is not found"},
		}, Returns: "string",
		Fn: func(a ...scm.Scmer) scm.Scmer {
			if len(a) > 1 {
				if val, ok := os.LookupEnv(scm.String(a[0])); ok {
					return val
				} else {
					return a[1]
				}
			} else {
				return os.Getenv(scm.String(a[0]))
			}
		}, Special: nil, Foldable: false,
	})
	scm.Declare(&IOEnv, &scm.Declaration{
		Name: "help", Desc: "Lists all functions or print help for a specific function",
		MinParameter: 0, MaxParameter: 1,
		Params: []scm.DeclarationParameter{
			scm.DeclarationParameter{Name: "topic", Type: "string", Desc: "function to print help about"},
		}, Returns: "nil",
		Fn: func(a ...scm.Scmer) scm.Scmer {
			if len(a) == 0 {
				scm.Help(nil)
			} else {
				scm.Help(a[0])
			}
			return nil
		}, Special: nil, Foldable: false,
	})
	scm.Declare(&IOEnv, &scm.Declaration{
		Name: "uuid", Desc: "returns a fresh random UUID as a string",
		MinParameter: 0, MaxParameter: 0,
		Params: []scm.DeclarationParameter{}, Returns: "string",
		Fn: func(a ...scm.Scmer) scm.Scmer {
			return uuid.NewString()
		}, Special: nil, Foldable: false,
	})
	scm.Declare(&IOEnv, &scm.Declaration{
		Name: "import", Desc: "Imports a .scm file into current namespace",
		MinParameter: 1, MaxParameter: 1,
		Params: []scm.DeclarationParameter{
			scm.DeclarationParameter{Name: "filename", Type: "string", Desc: "filename relative to folder of source file"},
		}, Returns: "any",
		Fn: (func(...scm.Scmer) scm.Scmer)(getImport(wd)), Special: nil, Foldable: false,
	})
	scm.Declare(&IOEnv, &scm.Declaration{
		Name: "load", Desc: "Loads a file and returns the string",
		MinParameter: 1, MaxParameter: 3,
		Params: []scm.DeclarationParameter{
			scm.DeclarationParameter{Name: "filename", Type: "string", Desc: "filename relative to folder of source file"},
			scm.DeclarationParameter{Name: "linehandler", Type: "func", Desc: "handler that reads each line"},
			scm.DeclarationParameter{Name: "delimiter", Type: "string", Desc: "delimiter to extract"},
		}, Returns: "string|bool",
		Fn: (func(...scm.Scmer) scm.Scmer)(getLoad(wd)), Special: nil, Foldable: false,
	})
	scm.Declare(&IOEnv, &scm.Declaration{
		Name: "watch", Desc: "Loads a file and calls the callback. Whenever the file changes on disk, the file is load again.",
		MinParameter: 2, MaxParameter: 2,
		Params: []scm.DeclarationParameter{
			scm.DeclarationParameter{Name: "filename", Type: "string", Desc: "filename relative to folder of source file"},
			scm.DeclarationParameter{Name: "updatehandler", Type: "func", Desc: "handler that receives the file content func(content)"},
		}, Returns: "bool",
		Fn: (func(...scm.Scmer) scm.Scmer)(getWatch(wd)), Special: nil, Foldable: false,
	})
}

func main() {
	fmt.Print(`scmer Copyright (C) 2023, 2024   Carl-Philip Hänsch
    This program comes with ABSOLUTELY NO WARRANTY;
    This is free software, and you are welcome to redistribute it
    under certain conditions;

`)

	// init random generator for UUIDs
	uuid.SetRand(rand.Reader)

	// parse command line options
	var commands arrayFlags
	flag.Var(&commands, "c", "Execute scm command")

	profile := ""
	flag.StringVar(&profile, "profile", "", "Write a CPU profile to this file")

	trace := false
	flag.BoolVar(&trace, "trace", false, "Write a chrome://tracing profile (set SCMER_TRACEDIR for the target folder)")

	docs := ""
	flag.StringVar(&docs, "docs", "", "Write Markdown documentation of all builtins to this folder and exit")

	wd, _ := os.Getwd() // libraries are relative to working directory... or change with -wd PATH
	flag.StringVar(&wd, "wd", wd, "Working Directory for (import) and (load) (Default: .)")

	flag.Parse()
	imports := flag.Args()

	setupIO(wd)

	if docs != "" {
		if err := scm.WriteDocumentation(docs); err != nil {
			panic(err)
		}
		return
	}

	scm.SetTrace(trace)
	onexit.Register(func() { scm.SetTrace(false) }) // close trace file on exit
	onexit.Register(scm.DefaultScheduler.Stop)

	// load scripts from command line
	for _, scmfile := range imports {
		fmt.Println("Loading " + scmfile + " ...")
		IOEnv.Vars["import"].Value.(func(...scm.Scmer) scm.Scmer)(scmfile)
	}
	for _, command := range commands {
		fmt.Println("Executing " + command + " ...")
		code := scm.Read("command line", command)
		scm.Validate(code, "any")
		if c, ok := code.(*scm.Cell); ok {
			scm.Digest(c, &IOEnv)
		} else {
			scm.Eval(code, &IOEnv)
		}
	}

	// install exit handler
	cancelChan := make(chan os.Signal, 1)
	signal.Notify(cancelChan, syscall.SIGTERM, syscall.SIGINT)
	go (func() {
		<-cancelChan
		exitroutine()
		os.Exit(1)
	})()

	fmt.Print(`

    Type (help) to show help

`)
	// init profiling
	if profile != "" {
		f, err := os.Create(profile)
		if err != nil {
			panic(err)
		}
		defer f.Close()
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	// REPL shell
	scm.Repl(&IOEnv)

	// normal shutdown
	exitroutine()
}

func exitroutine() {
	fmt.Println("Exit procedure...")
	if scm.ReplInstance != nil {
		// in case it dosen't exit properly
		scm.ReplInstance.Close()
	}
	scm.DefaultScheduler.Stop()
	scm.SetTrace(false)
	fmt.Println("Exit procedure finished")
}
